// Package cmd implements the command-line interface for the dLock distributed
// lock manager. It provides a hierarchical command structure with operations
// for running the lease server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - lock: Commands for locking operations (acquire, release, status, sweep)
//   - serve: Commands for starting and configuring the dLock server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dlock -help for a list of all commands.
package cmd
