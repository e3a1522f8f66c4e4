// Package store defines the lease record store boundary of dLock.
//
// A lease record store is a single keyed collection of lease records held in
// a shared persistence service. It exposes exactly the atomic operations the
// lock manager needs:
//
//   - TryInsert: atomically create a record if no live record exists for the
//     resource. An expired record counts as absent and is overwritten.
//   - DeleteIfOwner: atomically delete a record, but only if it is still
//     owned by the given owner token.
//   - Peek: read the live record for a resource (diagnostics only).
//   - Sweep: remove records that are already logically dead.
//
// The conditional-insert semantics of TryInsert are the serialization point
// of the whole system: two concurrent callers racing for the same resource
// are ordered by the store itself, never by application-level locking. An
// implementation that reads and then writes in two steps is incorrect, no
// matter how small the window.
//
// Implementations never cache lease state locally. Every process instance
// must observe the same store.
//
// Available backends:
//
//   - memstore: in-process sharded map. Single node only; used for tests and
//     as the engine behind a dLock lease server.
//   - redisstore: Redis via go-redis. Lease expiry is delegated to Redis key
//     TTLs, so the Redis server clock governs expiration.
//   - mongostore: MongoDB via the official driver. One document per resource
//     with the resource name as _id; conditional upserts provide atomicity.
//   - rpc/client: remote store speaking the dLock wire protocol against a
//     dLock lease server.
//
// All store errors are of type *Error and carry a RetCode. Callers use
// the code to distinguish an unreachable store (RetCUnavailable) from an
// internal failure; "resource already locked" is never an error, it is the
// inserted=false return of TryInsert.
package store
