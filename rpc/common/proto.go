package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Resource string `json:"resource,omitempty"` // Used for: TryInsert, DeleteIfOwner, Peek
	Owner    string `json:"owner,omitempty"`    // Used for: TryInsert, DeleteIfOwner (request), Peek (response)
	TTL      uint64 `json:"ttl,omitempty"`      // Lease duration in milliseconds, used for: TryInsert

	// Response only fields
	AcquiredAt int64  `json:"acquiredAt,omitempty"` // Unix milliseconds, used for: Peek responses
	ExpiresAt  int64  `json:"expiresAt,omitempty"`  // Unix milliseconds, used for: Peek responses
	Ok         bool   `json:"ok,omitempty"`         // Used for: TryInsert, DeleteIfOwner, Peek responses
	Count      uint64 `json:"count,omitempty"`      // Used for: Sweep responses
	Err        string `json:"err,omitempty"`        // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewTryInsertRequest creates a new TryInsert request
func NewTryInsertRequest(resource, owner string, ttl uint64) *Message {
	return &Message{
		MsgType:  MsgTLSTryInsert,
		Resource: resource,
		Owner:    owner,
		TTL:      ttl,
	}
}

// NewTryInsertResponse creates a new TryInsert response
func NewTryInsertResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTLSTryInsert,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewDeleteIfOwnerRequest creates a new DeleteIfOwner request
func NewDeleteIfOwnerRequest(resource, owner string) *Message {
	return &Message{
		MsgType:  MsgTLSDeleteIfOwner,
		Resource: resource,
		Owner:    owner,
	}
}

// NewDeleteIfOwnerResponse creates a new DeleteIfOwner response
func NewDeleteIfOwnerResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTLSDeleteIfOwner,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewPeekRequest creates a new Peek request
func NewPeekRequest(resource string) *Message {
	return &Message{
		MsgType:  MsgTLSPeek,
		Resource: resource,
	}
}

// NewPeekResponse creates a new Peek response
func NewPeekResponse(ok bool, owner string, acquiredAt, expiresAt int64, err error) *Message {
	msg := &Message{
		MsgType:    MsgTLSPeek,
		Ok:         ok,
		Owner:      owner,
		AcquiredAt: acquiredAt,
		ExpiresAt:  expiresAt,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewSweepRequest creates a new Sweep request
func NewSweepRequest() *Message {
	return &Message{
		MsgType: MsgTLSSweep,
	}
}

// NewSweepResponse creates a new Sweep response
func NewSweepResponse(count uint64, err error) *Message {
	msg := &Message{
		MsgType: MsgTLSSweep,
		Count:   count,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTLSTryInsert:
		return "tryInsert"
	case MsgTLSDeleteIfOwner:
		return "deleteIfOwner"
	case MsgTLSPeek:
		return "peek"
	case MsgTLSSweep:
		return "sweep"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "tryInsert":
		*t = MsgTLSTryInsert
	case "deleteIfOwner":
		*t = MsgTLSDeleteIfOwner
	case "peek":
		*t = MsgTLSPeek
	case "sweep":
		*t = MsgTLSSweep
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ILeaseStore operations

	MsgTLSTryInsert     // Insert a lease if the resource is free
	MsgTLSDeleteIfOwner // Delete a lease held by a specific owner
	MsgTLSPeek          // Inspect the current lease of a resource
	MsgTLSSweep         // Remove all expired leases

	// Custom operations

	MsgTCustom // Custom operation type
)
