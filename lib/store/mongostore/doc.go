// Package mongostore implements the lease record store on MongoDB.
//
// Each resource maps to one document whose _id is the resource name, so
// uniqueness comes from the collection's mandatory _id index and needs no
// extra constraint. TryInsert is a single conditional upsert:
//
//	ReplaceOne({_id: r, expires_at: {$lte: now}}, record, upsert)
//
// If no document exists the upsert inserts one; if an expired document
// exists the filter matches and it is replaced; if a live document exists
// the filter matches nothing and the attempted upsert collides with the
// _id index, which the driver reports as a duplicate key error. That is
// the "another live holder exists" outcome, not a failure. All three paths
// are decided by one atomic operation on the server.
//
// Timestamps are the caller's: the lock manager's clock decides what
// counts as expired, which keeps behavior identical to memstore and makes
// the backend usable against any MongoDB deployment that offers a single
// primary for writes.
package mongostore
