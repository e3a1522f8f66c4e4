// Package rpc provides the remote access layer for the distributed lock
// manager. It is organized into subpackages that together implement a complete
// client/server stack for the lease store interface:
//
//   - common: shared message protocol and configuration types
//   - serializer: pluggable message encodings (binary, json, gob)
//   - transport: protocol-agnostic transport interfaces with tcp, unix and
//     http implementations built on a shared base layer
//   - server: the lease server that exposes any store.ILeaseStore over a
//     transport, stamping all operations with its own clock
//   - client: a store.ILeaseStore implementation backed by a remote server,
//     suitable as the storage layer of a local lockmgr.ILockManager
//
// A typical deployment runs one lease server in front of a shared backend
// (in-memory, Redis or MongoDB) while any number of clients coordinate
// through it using the lock manager API.
package rpc
