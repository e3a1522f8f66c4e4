package rpc_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/memstore"
	"github.com/ValentinKolb/dLock/rpc/client"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rpcserver "github.com/ValentinKolb/dLock/rpc/server"
)

// startLeaseServer starts a memstore-backed lease server on a unix socket in a
// temporary directory and waits until it accepts connections.
func startLeaseServer(t *testing.T) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "dlock.sock")

	backend := memstore.New(&memstore.Options{GCInterval: -1})
	t.Cleanup(backend.Close)

	srv := rpcserver.NewRPCServer(
		common.ServerConfig{
			Endpoint:      socketPath,
			TimeoutSecond: 5,
			LogLevel:      "error",
		},
		backend,
		unix.NewUnixServerTransport(),
		serializer.NewBinarySerializer(),
	)

	go func() {
		if err := srv.Serve(); err != nil {
			t.Logf("server stopped: %v", err)
		}
	}()

	// Wait for the socket to accept connections
	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond, "server did not start")

	return socketPath
}

func newRemoteStore(t *testing.T, socketPath string) store.ILeaseStore {
	t.Helper()

	transport := unix.NewUnixClientTransport()
	s, err := client.NewRPCStore(
		common.ClientConfig{
			Endpoints:     []string{socketPath},
			TimeoutSecond: 5,
			RetryCount:    3,
		},
		transport,
		serializer.NewBinarySerializer(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { transport.Close() })

	return s
}

func TestRemoteLeaseStore(t *testing.T) {
	socketPath := startLeaseServer(t)
	s := newRemoteStore(t, socketPath)
	ctx := context.Background()

	// first insert wins
	inserted, err := s.TryInsert(ctx, "res", "owner-a", time.Minute, time.Now())
	require.NoError(t, err)
	assert.True(t, inserted)

	// second insert loses while the lease is live
	inserted, err = s.TryInsert(ctx, "res", "owner-b", time.Minute, time.Now())
	require.NoError(t, err)
	assert.False(t, inserted)

	// peek sees the holder with server-side timestamps
	rec, found, err := s.Peek(ctx, "res", time.Now())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "res", rec.Resource)
	assert.Equal(t, "owner-a", rec.Owner)
	assert.True(t, rec.ExpiresAt.After(rec.AcquiredAt))

	// wrong owner cannot delete
	removed, err := s.DeleteIfOwner(ctx, "res", "owner-b")
	require.NoError(t, err)
	assert.False(t, removed)

	// holder can delete
	removed, err = s.DeleteIfOwner(ctx, "res", "owner-a")
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err = s.Peek(ctx, "res", time.Now())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRemoteLeaseExpiry(t *testing.T) {
	socketPath := startLeaseServer(t)
	s := newRemoteStore(t, socketPath)
	ctx := context.Background()

	inserted, err := s.TryInsert(ctx, "res", "owner-a", 100*time.Millisecond, time.Now())
	require.NoError(t, err)
	require.True(t, inserted)

	// lease must be reclaimable after it ran out on the server clock
	assert.Eventually(t, func() bool {
		inserted, err := s.TryInsert(ctx, "res", "owner-b", time.Minute, time.Now())
		return err == nil && inserted
	}, 5*time.Second, 25*time.Millisecond)
}

func TestRemoteSweep(t *testing.T) {
	socketPath := startLeaseServer(t)
	s := newRemoteStore(t, socketPath)
	ctx := context.Background()

	for _, resource := range []string{"a", "b", "c"} {
		inserted, err := s.TryInsert(ctx, resource, "owner", 50*time.Millisecond, time.Now())
		require.NoError(t, err)
		require.True(t, inserted)
	}

	time.Sleep(100 * time.Millisecond)

	removed, err := s.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
}

func TestRemoteInvalidArguments(t *testing.T) {
	socketPath := startLeaseServer(t)
	s := newRemoteStore(t, socketPath)
	ctx := context.Background()

	_, err := s.TryInsert(ctx, "", "owner", time.Minute, time.Now())
	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, store.RetCInvalidArgument, se.Code)

	_, _, err = s.Peek(ctx, "", time.Now())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, store.RetCInvalidArgument, se.Code)
}

// TestLockManagerOverRPC runs the full stack: two lock managers in different
// "processes" coordinating through one lease server.
func TestLockManagerOverRPC(t *testing.T) {
	socketPath := startLeaseServer(t)

	mgrA := lockmgr.NewLockManager(newRemoteStore(t, socketPath), nil)
	mgrB := lockmgr.NewLockManager(newRemoteStore(t, socketPath), nil)
	ctx := context.Background()

	lock, acquired, err := mgrA.Acquire(ctx, "invoice-export", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// the other manager sees the lock as held
	_, acquired, err = mgrB.Acquire(ctx, "invoice-export", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	lock.Release(ctx)

	// after release the lock is free for the other manager
	lockB, acquired, err := mgrB.Acquire(ctx, "invoice-export", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
	lockB.Release(ctx)
}

func TestStoreUnavailableOverRPC(t *testing.T) {
	// point the client at a socket nobody listens on
	socketPath := filepath.Join(t.TempDir(), "nobody.sock")

	transport := unix.NewUnixClientTransport()
	_, err := client.NewRPCStore(
		common.ClientConfig{
			Endpoints:     []string{socketPath},
			TimeoutSecond: 1,
			RetryCount:    1,
		},
		transport,
		serializer.NewBinarySerializer(),
	)
	require.Error(t, err, "connecting to a dead endpoint must fail")
}
