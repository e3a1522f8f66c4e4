package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/client"
	"github.com/spf13/cobra"
)

var (
	remoteStore    store.ILeaseStore
	rpcLockMgr     lockmgr.ILockManager
	acquireTimeout uint64

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Perform lock operations",
		PersistentPreRunE: setupLockClient,
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [resource]",
		Short: "Acquire a lock",
		Long:  "Acquire a lock on the given resource. On success the owner token is printed; pass it to the release command to unlock.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [resource] [owner]",
		Short: "Release a previously acquired lock",
		Long:  "Release a lock using the resource and owner token. The owner token is the string returned by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelease,
	}

	// statusCmd represents the status command
	statusCmd = &cobra.Command{
		Use:   "status [resource]",
		Short: "Show the current holder of a lock",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}

	// sweepCmd represents the sweep command
	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Remove all expired leases from the server",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add subcommands to lock command
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)
	LockCommands.AddCommand(statusCmd)
	LockCommands.AddCommand(sweepCmd)

	// Add common RPC flags to the lock command
	util.SetupRPCClientFlags(LockCommands)

	// Add flags specific to acquire
	acquireCmd.Flags().Uint64Var(&acquireTimeout, "ttl", 30, "Lease duration in seconds")
}

// setupLockClient initializes the remote lease store and the lock manager on top of it
func setupLockClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the remote lease store and run a lock manager on top of it
	remoteStore, err = client.NewRPCStore(*config, t, s)
	if err != nil {
		return err
	}
	rpcLockMgr = lockmgr.NewLockManager(remoteStore, nil)

	return nil
}

// runAcquire handles the acquire lock command
func runAcquire(cmd *cobra.Command, args []string) error {
	resource := args[0]
	ttl := time.Duration(acquireTimeout) * time.Second

	// Attempt to acquire the lock
	lock, acquired, err := rpcLockMgr.Acquire(context.Background(), resource, ttl)

	if err != nil {
		return fmt.Errorf("failed to acquire lock: %v", err)
	}

	if !acquired {
		fmt.Printf("acquired=false\n")
		return nil
	}

	fmt.Printf("acquired=true, owner=%s, expiresAt=%s\n", lock.Owner(), lock.ExpiresAt().Format(time.RFC3339))

	return nil
}

// runRelease handles the release lock command
func runRelease(_ *cobra.Command, args []string) error {
	resource := args[0]
	owner := args[1]

	// Attempt to release the lock
	released, err := remoteStore.DeleteIfOwner(context.Background(), resource, owner)

	if err != nil {
		return fmt.Errorf("failed to release lock: %v", err)
	}

	fmt.Printf("released=%v\n", released)

	return nil
}

// runStatus handles the status command
func runStatus(_ *cobra.Command, args []string) error {
	resource := args[0]

	rec, found, err := remoteStore.Peek(context.Background(), resource, time.Now())
	if err != nil {
		return fmt.Errorf("failed to inspect lock: %v", err)
	}

	if !found {
		fmt.Printf("held=false\n")
		return nil
	}

	fmt.Printf("held=true, owner=%s, acquiredAt=%s, expiresAt=%s\n",
		rec.Owner, rec.AcquiredAt.Format(time.RFC3339), rec.ExpiresAt.Format(time.RFC3339))

	return nil
}

// runSweep handles the sweep command
func runSweep(_ *cobra.Command, _ []string) error {
	removed, err := remoteStore.Sweep(context.Background(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to sweep leases: %v", err)
	}

	fmt.Printf("removed=%d\n", removed)

	return nil
}
