package client

import (
	"context"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

// NewRPCStore creates a new RPC lease store
// The function takes a config, a transport and a serializer as parameters
// It returns a store.ILeaseStore and an error
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.ILeaseStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

// TryInsert forwards the insert to the server. The now parameter is ignored:
// the server stamps the lease with its own clock so all clients share a single
// consistency point regardless of local clock skew.
func (i *rpcStore) TryInsert(ctx context.Context, resource, owner string, ttl time.Duration, _ time.Time) (bool, error) {
	if err := store.ValidateKeys(resource, owner); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, store.NewErrorf(store.RetCUnavailable, "context done: %v", err)
	}

	req := common.NewTryInsertRequest(resource, owner, uint64(ttl.Milliseconds()))
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return false, wrapRPCErr(err)
	}
	return resp.Ok, nil
}

func (i *rpcStore) DeleteIfOwner(ctx context.Context, resource, owner string) (bool, error) {
	if err := store.ValidateKeys(resource, owner); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, store.NewErrorf(store.RetCUnavailable, "context done: %v", err)
	}

	req := common.NewDeleteIfOwnerRequest(resource, owner)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return false, wrapRPCErr(err)
	}
	return resp.Ok, nil
}

func (i *rpcStore) Peek(ctx context.Context, resource string, _ time.Time) (store.LeaseRecord, bool, error) {
	if resource == "" {
		return store.LeaseRecord{}, false, store.NewError(store.RetCInvalidArgument, "resource must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return store.LeaseRecord{}, false, store.NewErrorf(store.RetCUnavailable, "context done: %v", err)
	}

	req := common.NewPeekRequest(resource)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return store.LeaseRecord{}, false, wrapRPCErr(err)
	}
	if !resp.Ok {
		return store.LeaseRecord{}, false, nil
	}

	rec := store.LeaseRecord{
		Resource:   resource,
		Owner:      resp.Owner,
		AcquiredAt: time.UnixMilli(resp.AcquiredAt).UTC(),
		ExpiresAt:  time.UnixMilli(resp.ExpiresAt).UTC(),
	}
	return rec, true, nil
}

func (i *rpcStore) Sweep(ctx context.Context, _ time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, store.NewErrorf(store.RetCUnavailable, "context done: %v", err)
	}

	req := common.NewSweepRequest()
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return 0, wrapRPCErr(err)
	}
	return int(resp.Count), nil
}

// Close shuts down the underlying transport
func (i *rpcStore) Close() error {
	return i.transport.Close()
}

// wrapRPCErr converts transport and server errors into store errors so
// callers can classify them uniformly
func wrapRPCErr(err error) error {
	return store.NewErrorf(store.RetCUnavailable, "rpc: %v", err)
}
