package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/storetest"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The suite needs a running MongoDB and is skipped unless
// DLOCK_TEST_MONGO_URI is set, e.g.
//
//	DLOCK_TEST_MONGO_URI=mongodb://localhost:27017 go test ./lib/store/mongostore/
func testCollection(t *testing.T) *mongo.Collection {
	t.Helper()

	uri := os.Getenv("DLOCK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DLOCK_TEST_MONGO_URI not set; skipping MongoDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect to %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping %s: %v", uri, err)
	}

	// fresh collection per test run so leftovers never leak between runs
	coll := client.Database("dlock_test").Collection("leases_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = coll.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	if err := EnsureIndexes(ctx, coll); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return coll
}

func TestMongoStoreConformance(t *testing.T) {
	storetest.Run(t, "mongostore", storetest.Harness{
		New: func(t *testing.T) store.ILeaseStore {
			return New(testCollection(t))
		},
		// real clock: Advance sleeps, so keep the lease short
		ShortTTL: 300 * time.Millisecond,
	})
}

func TestReplaceKeepsSingleDocument(t *testing.T) {
	coll := testCollection(t)
	s := New(coll)
	ctx := context.Background()

	now := time.Now()
	if ok, err := s.TryInsert(ctx, "res", "owner-a", 50*time.Millisecond, now); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}
	// reclaim the expired lease in place
	if ok, err := s.TryInsert(ctx, "res", "owner-b", time.Minute, now.Add(100*time.Millisecond)); err != nil || !ok {
		t.Fatalf("reclaim TryInsert = (%v, %v)", ok, err)
	}

	n, err := coll.CountDocuments(ctx, map[string]any{"_id": "res"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("found %d documents for one resource, want 1", n)
	}
}
