// Package server implements the RPC server for the distributed lock manager.
// It provides an adapter for handling RPC requests against a lease store,
// along with the core server implementation that manages request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for lease store operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - A single authoritative server clock for all expiry decisions
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a
//     store.ILeaseStore.
//
//   - NewLeaseStoreServerAdapter: Factory function creating an adapter for lease
//     store operations, translating RPC requests to store.ILeaseStore method calls.
//     The adapter stamps every operation with the server's own clock, so client
//     clock skew cannot affect expiry decisions.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     store, transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Endpoint: "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  memstore.New(nil),
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Serve method is not thread-safe and should be called only once.
package server
