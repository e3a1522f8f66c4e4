package serializer

import (
	"bytes"
	"encoding/gob"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// NewGOBSerializer creates a serializer backed by encoding/gob. Slower
// and larger than the binary format, see the package benchmarks.
func NewGOBSerializer() IRPCSerializer {
	return &gobSerializerImpl{}
}

type gobSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(msg)
}
