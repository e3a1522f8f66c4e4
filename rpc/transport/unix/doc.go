// Package unix binds the framed RPC transport to Unix domain sockets.
// It is the transport of choice when client and server share a host:
// no TCP stack, no port allocation, file permissions as access control.
//
// The endpoint is a filesystem path. The server removes a stale socket
// file before listening. Buffers default to 64 KB.
package unix
