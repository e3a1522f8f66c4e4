package server

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/common"
)

func NewLeaseStoreServerAdapter() IRPCServerAdapter {
	return &leaseStoreServerAdapterImpl{}
}

type leaseStoreServerAdapterImpl struct{}

// Handle translates RPC messages into lease store calls. The server clock is
// the single consistency point for expiry: clients never transmit their own
// notion of now, which keeps correctness independent of client clock skew.
func (adapter *leaseStoreServerAdapterImpl) Handle(req *common.Message, s store.ILeaseStore) *common.Message {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	ctx := context.Background()
	now := time.Now().UTC()

	// Handle different message types
	switch req.MsgType {
	case common.MsgTLSTryInsert:
		ttl := time.Duration(req.TTL) * time.Millisecond
		inserted, err := s.TryInsert(ctx, req.Resource, req.Owner, ttl, now)
		return common.NewTryInsertResponse(inserted, err)
	case common.MsgTLSDeleteIfOwner:
		removed, err := s.DeleteIfOwner(ctx, req.Resource, req.Owner)
		return common.NewDeleteIfOwnerResponse(removed, err)
	case common.MsgTLSPeek:
		rec, found, err := s.Peek(ctx, req.Resource, now)
		if !found {
			return common.NewPeekResponse(false, "", 0, 0, err)
		}
		return common.NewPeekResponse(true, rec.Owner, rec.AcquiredAt.UnixMilli(), rec.ExpiresAt.UnixMilli(), err)
	case common.MsgTLSSweep:
		removed, err := s.Sweep(ctx, now)
		return common.NewSweepResponse(uint64(removed), err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC LeaseStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
