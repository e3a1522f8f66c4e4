package base

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dLock/lib/logger"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.NewStdLogger("transport/rpc", logger.LevelInfo)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector supplies the medium-specific pieces of a client
// transport. The pooling, framing and retry logic in this package is
// shared; only dialing differs between unix and tcp.
type IClientConnector interface {
	// Connect dials a single endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the transport name for log lines (e.g. "unix")
	GetName() string

	// UpgradeConnection applies medium-specific options to a fresh
	// connection before it is used
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// pendingReply is handed back to a waiting Send call
type pendingReply struct {
	data []byte
	err  error
}

// poolConn is one pooled connection plus its reader goroutine state.
// pending maps in-flight request IDs to the channel their reply goes to.
type poolConn struct {
	conn     net.Conn
	endpoint string
	stopCh   chan struct{}
	pending  *xsync.MapOf[uint64, chan pendingReply]
	writeMu  sync.Mutex
	parent   *pooledClientTransport
}

// pooledClientTransport multiplexes requests over a pool of connections.
// Request IDs correlate replies, so many Send calls can share one
// connection without blocking each other.
type pooledClientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
	pool      []*poolConn
	poolMu    sync.RWMutex
	rrCounter uint64
	reqID     uint64
	stopping  bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport wraps a connector in the shared pooling transport
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &pooledClientTransport{
		connector: connector,
		reqID:     1,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *pooledClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	t.config = config
	t.stopping = false

	// Reconnecting an already connected transport starts from scratch
	t.teardown()

	perEndpoint := config.ConnectionsPerEndpoint
	if perEndpoint < 1 {
		perEndpoint = 1
	}

	t.pool = make([]*poolConn, 0, len(config.Endpoints)*perEndpoint)

	for _, endpoint := range config.Endpoints {
		for i := 0; i < perEndpoint; i++ {
			pc := &poolConn{
				endpoint: endpoint,
				stopCh:   make(chan struct{}),
				pending:  xsync.NewMapOf[uint64, chan pendingReply](),
				parent:   t,
			}

			if err := pc.redial(); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, perEndpoint, err)
				continue
			}

			t.poolMu.Lock()
			t.pool = append(t.pool, pc)
			t.poolMu.Unlock()

			Logger.Infof("Connected to %s (connection %d/%d)", endpoint, i+1, perEndpoint)

			go pc.readLoop()
		}
	}

	// A partially filled pool is usable, an empty one is not
	if len(t.pool) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	Logger.Infof("Pool ready: %d/%d connections across %d endpoints (%s transport)",
		len(t.pool), len(config.Endpoints)*perEndpoint, len(config.Endpoints), t.connector.GetName())

	return nil
}

func (t *pooledClientTransport) Send(req []byte) ([]byte, error) {
	requestID := atomic.AddUint64(&t.reqID, 1)

	attempts := t.config.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	backoffMs := 50

	for i := 0; i < attempts; i++ {
		pc := t.pickConn()
		if pc == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		data, err := t.roundTrip(pc, requestID, req)
		if err == nil {
			return data, nil
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, attempts, err)

		if i < attempts-1 {
			// Exponential backoff with +-10% jitter so retries from
			// concurrent callers spread out
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %v", attempts, lastErr)
}

func (t *pooledClientTransport) Close() error {
	t.stopping = true
	t.teardown()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// roundTrip writes one framed request on pc and waits for the matching
// reply or the configured timeout
func (t *pooledClientTransport) roundTrip(pc *poolConn, requestID uint64, req []byte) ([]byte, error) {
	if pc.conn == nil {
		return nil, fmt.Errorf("connection is closed")
	}

	replyCh := make(chan pendingReply, 1)
	pc.pending.Store(requestID, replyCh)
	defer pc.pending.Delete(requestID)

	if t.config.TimeoutSecond > 0 {
		pc.conn.SetWriteDeadline(time.Now().Add(time.Duration(t.config.TimeoutSecond) * time.Second))
	}

	// Only the write is serialized, waiting happens off the lock
	pc.writeMu.Lock()
	err := writeFrame(pc.conn, requestID, req)
	pc.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	var timeoutCh <-chan time.Time
	if t.config.TimeoutSecond > 0 {
		timeoutCh = time.After(time.Duration(t.config.TimeoutSecond) * time.Second)
	}

	select {
	case reply := <-replyCh:
		return reply.data, reply.err
	case <-timeoutCh:
		return nil, fmt.Errorf("request timed out")
	}
}

// pickConn returns the next pool connection round robin
func (t *pooledClientTransport) pickConn() *poolConn {
	t.poolMu.RLock()
	defer t.poolMu.RUnlock()

	switch len(t.pool) {
	case 0:
		return nil
	case 1:
		return t.pool[0]
	default:
		return t.pool[atomic.AddUint64(&t.rrCounter, 1)%uint64(len(t.pool))]
	}
}

// teardown closes every pooled connection and empties the pool
func (t *pooledClientTransport) teardown() {
	t.poolMu.Lock()
	defer t.poolMu.Unlock()

	for _, pc := range t.pool {
		close(pc.stopCh)
		if pc.conn != nil {
			pc.conn.Close()
		}
	}
	t.pool = nil
}

// readLoop reads reply frames and routes them to the Send call that is
// waiting on the frame's request ID
func (pc *poolConn) readLoop() {
	for {
		select {
		case <-pc.stopCh:
			return
		default:
		}

		if pc.parent.config.TimeoutSecond > 0 {
			pc.conn.SetReadDeadline(time.Now().Add(time.Duration(pc.parent.config.TimeoutSecond) * time.Second))
		}

		requestID, data, err := readFrame(pc.conn, nil)

		replyCh, waiting := pc.pending.Load(requestID)
		switch {
		case waiting && err != nil:
			replyCh <- pendingReply{nil, fmt.Errorf("error reading response: %v", err)}
		case waiting:
			replyCh <- pendingReply{data, nil}
		case err != nil:
			// Read failure with nobody waiting means the connection
			// itself is broken
			Logger.Errorf("Read error on connection to %s: %v", pc.endpoint, err)
			if err := pc.redial(); err != nil {
				Logger.Errorf("Failed to reconnect to %s: %v", pc.endpoint, err)
				return
			}
		default:
			Logger.Warningf("Received response for unknown request ID %d", requestID)
		}
	}
}

// redial replaces the underlying connection with a fresh one
func (pc *poolConn) redial() error {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()

	if pc.conn != nil {
		pc.conn.Close()
		pc.conn = nil
	}

	conn, err := pc.parent.connector.Connect(pc.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", pc.endpoint, err)
	}

	if err := pc.parent.connector.UpgradeConnection(conn, pc.parent.config); err != nil {
		conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %v", pc.endpoint, err)
	}

	pc.conn = conn
	return nil
}
