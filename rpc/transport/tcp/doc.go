// Package tcp binds the framed RPC transport to plain TCP. Nagle's
// algorithm is disabled on client connections since lock traffic is
// many small latency-sensitive frames. Buffers default to 512 KB.
package tcp
