package serializer

import "github.com/ValentinKolb/dLock/rpc/common"

// IRPCSerializer is implemented by all message codecs. Client and server
// must be configured with the same implementation.
type IRPCSerializer interface {
	// Serialize encodes a Message into wire bytes
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes wire bytes into the given Message,
	// overwriting all of its fields
	Deserialize(b []byte, msg *common.Message) error
}
