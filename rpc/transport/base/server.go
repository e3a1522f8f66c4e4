package base

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector supplies the medium-specific listener. Everything
// after Accept is shared between unix and tcp.
type IServerConnector interface {
	// Listen binds the configured endpoint and returns the listener
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the transport name for log lines (e.g. "unix")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// connServerTransport accepts framed connections and fans requests out
// to a bounded worker pool per connection
type connServerTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	listener   net.Listener
	bufPool    *sync.Pool
	bufSize    int
	maxWorkers int
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport wraps a connector in the shared accept loop.
// maxWorkersPerConn bounds how many requests from a single connection
// may be processed concurrently, bufferSize is the read buffer handed
// to each frame read.
func NewBaseServerTransport(connector IServerConnector, bufferSize int, maxWorkersPerConn int) transport.IRPCServerTransport {
	if maxWorkersPerConn < 1 {
		maxWorkersPerConn = 1
	}

	return &connServerTransport{
		connector:  connector,
		bufSize:    bufferSize,
		maxWorkers: maxWorkersPerConn,
		bufPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *connServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *connServerTransport) Listen(config common.ServerConfig) error {
	t.config = config

	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listener = listener

	Logger.Infof("Starting %s server on %s with %d workers per connection",
		t.connector.GetName(), config.Endpoint, t.maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			Logger.Errorf("Accept error: %v", err)
			continue
		}
		go t.serveConn(conn)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// serveConn reads frames off one connection until it closes. Each frame
// is handled on its own goroutine, bounded by a counting semaphore, and
// replies carry the request ID of the frame they answer so the client
// can match them out of order.
func (t *connServerTransport) serveConn(conn net.Conn) {
	defer conn.Close()

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	sem := make(chan struct{}, t.maxWorkers)
	var wg sync.WaitGroup
	var writeMu sync.Mutex

	respond := func(requestID uint64, data []byte) {
		defer func() {
			<-sem
			wg.Done()
		}()

		start := time.Now()
		resp := t.handler(data)
		Logger.Debugf("Processed request with requestID %d took %s", requestID, time.Since(start))

		writeMu.Lock()
		defer writeMu.Unlock()

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}

		if err := writeFrame(conn, requestID, resp); err != nil {
			Logger.Errorf("Failed to write response: %v", err)
		}
	}

	readOne := func() error {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %v", err)
			}
		}

		buf := t.bufPool.Get().([]byte)

		requestID, data, err := readFrame(conn, buf)
		if err != nil {
			t.bufPool.Put(buf)
			return err
		}

		// Blocks once maxWorkers requests are in flight on this
		// connection, which backpressures the read loop
		sem <- struct{}{}
		wg.Add(1)

		go func() {
			defer t.bufPool.Put(buf)
			respond(requestID, data)
		}()

		return nil
	}

	for {
		err := readOne()
		if err == io.EOF {
			Logger.Infof("Connection closed by client")
			break
		}
		if err != nil {
			Logger.Errorf("Error handling request: %v", err)
			break
		}
	}

	// In-flight workers may still hold the connection for writes
	wg.Wait()
}
