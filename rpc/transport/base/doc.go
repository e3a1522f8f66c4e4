// Package base carries the transport logic shared by the unix and tcp
// bindings. A binding contributes only a connector (how to dial, how to
// listen); this package contributes everything else.
//
// Wire format: every message travels as a frame of
//
//	requestID (8 bytes) | payload length (4 bytes) | payload
//
// The request ID correlates a response with the request it answers, so
// one connection can carry many requests concurrently and responses may
// arrive out of order.
//
// Client side: pooledClientTransport keeps a configurable number of
// connections per endpoint and picks one round robin per request. Each
// connection runs a single reader goroutine that routes incoming frames
// to the Send call waiting on the matching request ID. Failed requests
// are retried with exponential backoff and jitter; broken connections
// are redialed.
//
// Server side: connServerTransport accepts connections and reads frames
// in a loop. Each frame is handled on its own goroutine, bounded per
// connection by a counting semaphore, with read buffers recycled
// through a sync.Pool. Frame writes go through net.Buffers so header
// and payload leave in one syscall.
package base
