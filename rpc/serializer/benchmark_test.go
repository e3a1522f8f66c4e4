package serializer

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTSuccess,
		},
		"SmallResourceOnly": {
			MsgType:  common.MsgTLSPeek,
			Resource: "r",
		},
		"MediumResourceOnly": {
			MsgType:  common.MsgTLSPeek,
			Resource: "medium-length-resource-for-testing",
		},
		"LargeResourceOnly": {
			MsgType:  common.MsgTLSPeek,
			Resource: "this-is-a-very-large-resource-name-that-could-be-used-for-namespaced-jobs-or-as-a-document-id-in-some-cases",
		},
		"TryInsertRequest": {
			MsgType:  common.MsgTLSTryInsert,
			Resource: "invoice-export",
			Owner:    "3f1c9a52-7a3e-4a01-b7de-2f2f4f4b9f10",
			TTL:      30000,
		},
		"PeekResponse": {
			MsgType:    common.MsgTLSPeek,
			Owner:      "3f1c9a52-7a3e-4a01-b7de-2f2f4f4b9f10",
			AcquiredAt: 1748779200000,
			ExpiresAt:  1748779230000,
			Ok:         true,
		},
		"LargeOwner": {
			MsgType:  common.MsgTLSDeleteIfOwner,
			Resource: "resource",
			Owner:    strings.Repeat("owner-", 64),
		},
		"CompleteMessage": {
			MsgType:    common.MsgTLSPeek,
			Resource:   "complete-test-resource",
			Owner:      "complete-test-owner",
			TTL:        10000,
			AcquiredAt: 1748779200000,
			ExpiresAt:  1748779210000,
			Ok:         true,
			Count:      3,
			Err:        "This is a test error message",
			Meta:       []byte("test-meta-data-for-benchmarking"),
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Err:     "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
