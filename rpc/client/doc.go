// Package client implements the RPC client for the distributed lock manager.
// It provides an implementation of the store.ILeaseStore interface that
// communicates with remote lease servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to a remote lease store
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the
//     store.ILeaseStore interface. This client forwards all operations to remote
//     servers via the configured transport layer. Timestamps supplied by the
//     caller are ignored on the wire: the server clock is the single consistency
//     point for lease expiry.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:5000"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create store client
//	leases, _ := client.NewRPCStore(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//
//	// Run a lock manager on top of the remote store
//	mgr := lockmgr.NewLockManager(leases, nil)
//	lock, acquired, _ := mgr.Acquire(ctx, "invoice-export", 30*time.Second)
//	if acquired {
//	  defer lock.Release(ctx)
//	}
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client implementation is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
