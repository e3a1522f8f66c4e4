// Package storetest provides a reusable conformance test suite for
// store.ILeaseStore implementations. Every backend (memstore, redisstore,
// mongostore, the rpc client store) runs the same suite so the atomicity
// and expiry semantics stay identical across them.
//
// Backends differ in how time advances: memstore honors the caller-supplied
// timestamps, Redis expires keys on its own clock, and miniredis needs an
// explicit fast-forward. The Harness therefore abstracts the clock: Now
// yields the current logical instant and Advance moves it forward.
package storetest
