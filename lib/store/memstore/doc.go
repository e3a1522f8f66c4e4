// Package memstore implements the lease record store on an in-process
// concurrent map. It is the backend used by tests and by a dLock lease
// server ("dlock serve --backend mem"), where all client processes reach it
// through the rpc layer and it becomes the single shared endpoint.
//
// Atomicity of TryInsert and DeleteIfOwner comes from per-key atomic
// compute operations on an xsync.MapOf; there is no lock around the whole
// map and no read-then-write window.
//
// Expiry is evaluated lazily against the caller-supplied timestamps.
// An optional background garbage collector only bounds memory growth by
// dropping records that are already logically dead; it runs on the wall
// clock and is never needed for correctness.
package memstore
