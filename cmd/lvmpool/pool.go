package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Pool management commands
var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage storage pools",
	Long: `Manage storage pools.

A pool is an LVM volume group. Creating a pool initializes each device as a
physical volume and builds a volume group over them; removing a pool
removes the volume group and releases its devices.`,
}

func init() {
	poolCmd.AddCommand(poolCreateCmd)
	poolCmd.AddCommand(poolGetCmd)
	poolCmd.AddCommand(poolListCmd)
	poolCmd.AddCommand(poolRemoveCmd)

	poolRemoveCmd.Flags().Bool("force", false, "Remove the pool's volumes before removing the pool")
}

var poolCreateCmd = &cobra.Command{
	Use:   "create <name> <device>...",
	Short: "Create a pool over one or more block devices",
	Long: `Create a pool named <name> over the given block devices.

Every device is wiped of existing signatures by pvcreate. A failure part
way through is not rolled back.

Example:
  lvmpool pool create tank1 /dev/sdb /dev/sdc`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		pool, err := mgr.Pools.Create(ctx, args[0], args[1:])
		if err != nil {
			return err
		}
		return printPool(cmd, pool)
	},
}

var poolGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		pool, err := mgr.Pools.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printPool(cmd, pool)
	},
}

var poolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all pools",
	Long: `List every volume group on the host with its devices and usage.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		pools, err := mgr.Pools.List(ctx)
		if err != nil {
			return err
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}
		result, err := formatter.FormatPoolList(pools)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), result)
		return nil
	},
}

var poolRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a pool and release its devices",
	Long: `Remove a pool by name.

Use --force to remove pools that contain volumes. Without --force, only
empty pools can be removed.

Warning: removing a pool with --force permanently deletes every volume in
the pool!

Example:
  lvmpool pool remove tank1
  lvmpool pool remove tank1 --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		force, _ := cmd.Flags().GetBool("force")

		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		// Make sure the pool exists before looking at its volumes
		if _, err := mgr.Pools.Get(ctx, name); err != nil {
			return err
		}

		// Check if pool has volumes
		volumes, err := mgr.Volumes.ListByPool(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check pool volumes: %w", err)
		}
		if len(volumes) > 0 {
			if !force {
				return fmt.Errorf("pool %s contains %d volume(s). Use --force to remove", name, len(volumes))
			}
			cmd.PrintErrf("Warning: removing pool %s with %d volume(s)...\n", name, len(volumes))
			for _, v := range volumes {
				if err := mgr.Volumes.Remove(ctx, v.UUID); err != nil {
					return fmt.Errorf("failed to remove volume %s: %w", v.UUID, err)
				}
			}
		}

		if err := mgr.Pools.Remove(ctx, name); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Pool %s removed\n", name)
		return nil
	},
}
