package transport

import (
	"github.com/ValentinKolb/dLock/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc processes one raw request and returns the raw
// response. The transport calls it once per received frame, possibly
// from many goroutines at once.
type ServerHandleFunc func(req []byte) (resp []byte)

// IRPCServerTransport is the server side of a transport binding.
type IRPCServerTransport interface {
	// RegisterHandler sets the function invoked for every incoming
	// request. Must be called before Listen.
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the configured endpoint and serves until it fails
	Listen(config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the client side of a transport binding.
type IRPCClientTransport interface {
	// Connect dials the configured endpoints
	Connect(config common.ClientConfig) error
	// Send performs one request/response round trip
	Send(req []byte) (resp []byte, err error)
	// Close tears down all connections
	Close() error
}
