package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// --------------------------------------------------------------------------
// Store Implementation
// --------------------------------------------------------------------------

type mongoStore struct {
	coll *mongo.Collection
}

// New creates a MongoDB-backed lease store on the given collection. The
// collection should be dedicated to lease records.
func New(coll *mongo.Collection) store.ILeaseStore {
	return &mongoStore{coll: coll}
}

// EnsureIndexes creates the expires_at index used by Sweep. The _id
// uniqueness that TryInsert relies on exists on every collection, so this
// is an optimization, not a correctness requirement.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
	})
	if err != nil {
		return wrapMongoErr("create index", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *mongoStore) TryInsert(ctx context.Context, resource, owner string, ttl time.Duration, now time.Time) (bool, error) {
	if err := store.ValidateKeys(resource, owner); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, store.NewError(store.RetCInvalidArgument, "ttl must be positive")
	}

	rec := store.LeaseRecord{
		Resource:   resource,
		Owner:      owner,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}

	// Upsert conditioned on "expired": a live document makes the filter
	// miss and the insert collide with the _id index instead.
	filter := bson.D{
		{Key: "_id", Value: resource},
		{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: now}}},
	}
	_, err := s.coll.ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, wrapMongoErr("conditional upsert", err)
	}
	return true, nil
}

func (s *mongoStore) DeleteIfOwner(ctx context.Context, resource, owner string) (bool, error) {
	if err := store.ValidateKeys(resource, owner); err != nil {
		return false, err
	}

	res, err := s.coll.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: resource},
		{Key: "owner", Value: owner},
	})
	if err != nil {
		return false, wrapMongoErr("delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *mongoStore) Peek(ctx context.Context, resource string, now time.Time) (store.LeaseRecord, bool, error) {
	if resource == "" {
		return store.LeaseRecord{}, false, store.NewError(store.RetCInvalidArgument, "resource must not be empty")
	}

	var rec store.LeaseRecord
	err := s.coll.FindOne(ctx, bson.D{
		{Key: "_id", Value: resource},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.LeaseRecord{}, false, nil
	}
	if err != nil {
		return store.LeaseRecord{}, false, wrapMongoErr("find", err)
	}
	return rec, true, nil
}

func (s *mongoStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{
		{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: now}}},
	})
	if err != nil {
		return 0, wrapMongoErr("sweep", err)
	}
	return int(res.DeletedCount), nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func wrapMongoErr(op string, err error) *store.Error {
	code := store.RetCInternalError
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		code = store.RetCUnavailable
	}
	return store.NewErrorf(code, "mongo %s: %v", op, err)
}
