// Package redisstore implements the lease record store on Redis.
//
// A lease is a single string key. TryInsert maps to SET NX PX, which is
// atomic at the Redis server and doubles as the expiry mechanism: an
// expired lease simply no longer exists, so the PX-governed key lifetime
// is the lease lifetime and the Redis server clock is authoritative. The
// caller-supplied "now" timestamps are therefore ignored here.
//
// DeleteIfOwner runs a small Lua script that compares the stored owner
// before deleting, again atomically at the server.
//
// The stored value is "owner|acquiredAtUnixMilli"; Peek reconstructs the
// expiry from the remaining PTTL. Sweep is a no-op because Redis already
// drops expired keys on its own.
package redisstore
