// Package common holds the message protocol and configuration types
// shared by the RPC client and server.
//
// Message is the single envelope for every operation on the wire. Which
// fields are meaningful depends on the MessageType: a tryInsert request
// carries resource, owner and ttl, its response carries ok, a peek
// response carries the lease record fields, and so on. The factory
// functions (NewTryInsertRequest, NewPeekResponse, ...) construct
// correctly shaped messages and are the only intended way to build one.
//
// Timestamps cross the wire as Unix milliseconds and lease durations as
// millisecond counts, so all clock interpretation happens on the server.
//
// ServerConfig and ClientConfig describe the two ends of a connection
// and are consumed by the transport bindings.
package common
