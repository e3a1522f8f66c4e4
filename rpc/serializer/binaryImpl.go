package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasResource byte = 1 << 0
	hasOwner    byte = 1 << 1
	hasTTL      byte = 1 << 2
	hasRecord   byte = 1 << 3 // AcquiredAt and ExpiresAt are always written together
	hasOk       byte = 1 << 4
	hasCount    byte = 1 << 5
	hasErr      byte = 1 << 6
	hasMeta     byte = 1 << 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after MsgType and flags

	// Handle Resource
	if msg.Resource != "" {
		flags |= hasResource
		resourceBytes := []byte(msg.Resource)
		resourceLen := len(resourceBytes)

		// Write resource length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(resourceLen))
		pos += 4

		// Write resource data
		copy(result[pos:pos+resourceLen], resourceBytes)
		pos += resourceLen
	}

	// Handle Owner
	if msg.Owner != "" {
		flags |= hasOwner
		ownerBytes := []byte(msg.Owner)
		ownerLen := len(ownerBytes)

		// Write owner length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(ownerLen))
		pos += 4

		// Write owner data
		copy(result[pos:pos+ownerLen], ownerBytes)
		pos += ownerLen
	}

	// Handle TTL
	if msg.TTL > 0 {
		flags |= hasTTL
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.TTL)
		pos += 8
	}

	// Handle AcquiredAt / ExpiresAt
	if msg.AcquiredAt != 0 || msg.ExpiresAt != 0 {
		flags |= hasRecord
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.AcquiredAt))
		pos += 8
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.ExpiresAt))
		pos += 8
	}

	// Handle Ok
	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}

	// Handle Count
	if msg.Count > 0 {
		flags |= hasCount
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Count)
		pos += 8
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		errBytes := []byte(msg.Err)
		errLen := len(errBytes)

		// Write error length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(errLen))
		pos += 4

		// Write error data
		copy(result[pos:pos+errLen], errBytes)
		pos += errLen
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		metaLen := len(msg.Meta)

		// Write meta length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(metaLen))
		pos += 4

		// Write meta data
		if metaLen > 0 {
			copy(result[pos:pos+metaLen], msg.Meta)
			pos += metaLen
		}
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]

	// Initialize read position
	pos := 2

	// Read Resource if present
	if flags&hasResource != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for resource length")
		}

		// Read resource length
		resourceLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(resourceLen) > len(data) {
			return fmt.Errorf("data too short for resource data")
		}

		// Read resource data
		msg.Resource = string(data[pos : pos+int(resourceLen)])
		pos += int(resourceLen)
	} else {
		msg.Resource = ""
	}

	// Read Owner if present
	if flags&hasOwner != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for owner length")
		}

		// Read owner length
		ownerLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(ownerLen) > len(data) {
			return fmt.Errorf("data too short for owner data")
		}

		// Read owner data
		msg.Owner = string(data[pos : pos+int(ownerLen)])
		pos += int(ownerLen)
	} else {
		msg.Owner = ""
	}

	// Read TTL if present
	if flags&hasTTL != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for TTL")
		}

		msg.TTL = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.TTL = 0
	}

	// Read AcquiredAt / ExpiresAt if present
	if flags&hasRecord != 0 {
		if pos+16 > len(data) {
			return fmt.Errorf("data too short for lease record timestamps")
		}

		msg.AcquiredAt = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
		msg.ExpiresAt = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	} else {
		msg.AcquiredAt = 0
		msg.ExpiresAt = 0
	}

	// Read Ok if present
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}

		msg.Ok = data[pos] != 0
		pos += 1
	} else {
		msg.Ok = false
	}

	// Read Count if present
	if flags&hasCount != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for count")
		}

		msg.Count = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.Count = 0
	}

	// Read Err if present
	if flags&hasErr != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for error length")
		}

		// Read error length
		errLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(errLen) > len(data) {
			return fmt.Errorf("data too short for error data")
		}

		// Read error data
		msg.Err = string(data[pos : pos+int(errLen)])
		pos += int(errLen)
	} else {
		msg.Err = ""
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for meta length")
		}

		// Read meta length
		metaLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(metaLen) > len(data) {
			return fmt.Errorf("data too short for meta data")
		}

		// Read metadata - create an empty slice (not nil) if length is 0
		// Allocate only if needed
		if msg.Meta == nil || cap(msg.Meta) < int(metaLen) {
			msg.Meta = make([]byte, metaLen)
		} else {
			msg.Meta = msg.Meta[:metaLen]
		}

		if metaLen > 0 {
			copy(msg.Meta, data[pos:pos+int(metaLen)])
		}
		pos += int(metaLen)
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding
	if msg.Resource != "" {
		size += 4 + len(msg.Resource) // 4 bytes for length + resource string
	}
	if msg.Owner != "" {
		size += 4 + len(msg.Owner) // 4 bytes for length + owner string
	}
	if msg.TTL > 0 {
		size += 8 // uint64
	}
	if msg.AcquiredAt != 0 || msg.ExpiresAt != 0 {
		size += 16 // two int64 timestamps
	}
	if msg.Ok {
		size += 1 // 1 byte for boolean
	}
	if msg.Count > 0 {
		size += 8 // uint64
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err) // 4 bytes for length + error string
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta) // 4 bytes for length + meta bytes
	}

	return size
}
