// Package serializer converts lock protocol messages to and from wire bytes.
// It defines one interface, IRPCSerializer, and three interchangeable
// implementations that clients and servers can pick per deployment.
//
// Implementations:
//
//   - binarySerializerImpl: hand-written format built around a single flags
//     byte. Only fields that are actually set appear on the wire, so a
//     typical tryInsert request is a few dozen bytes. This is the format
//     to use in production.
//
//   - jsonSerializerImpl: standard encoding/json. Larger and slower than
//     binary, but the payloads are readable, which makes it the right
//     choice while debugging or when a non-Go peer needs to speak the
//     protocol.
//
//   - gobSerializerImpl: encoding/gob. Kept for completeness; it is both
//     slower and larger than the other two in the benchmarks and there is
//     no scenario where it wins.
//
// All three are stateless and safe for concurrent use.
//
// Typical usage:
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(msg)
//	...
//	var resp common.Message
//	err = s.Deserialize(data, &resp)
package serializer
