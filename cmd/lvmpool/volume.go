package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jbweber/lvmpool/internal/lvm"
	"github.com/jbweber/lvmpool/internal/units"
)

// Volume management commands
var volumeCmd = &cobra.Command{
	Use:     "volume",
	Aliases: []string{"vol"},
	Short:   "Manage volumes",
	Long: `Manage volumes.

A volume is a thick logical volume named by its uuid, exposed at
<dev_dir>/<pool>/<uuid>.`,
}

func init() {
	volumeCmd.AddCommand(volumeCreateCmd)
	volumeCmd.AddCommand(volumeGetCmd)
	volumeCmd.AddCommand(volumeListCmd)
	volumeCmd.AddCommand(volumeRemoveCmd)

	volumeCreateCmd.Flags().String("size", "", "Volume size, e.g. 1GiB, 512MB or a byte count (required)")
	volumeCreateCmd.Flags().String("uuid", "", "Volume uuid (generated when omitted)")
	volumeCreateCmd.Flags().Bool("thin", false, "Request thin provisioning (not supported)")
	volumeCreateCmd.Flags().Int("share", 0, "Share protocol: 0 none, 1 nvmf, 2 iscsi (only 0 is supported)")
	_ = volumeCreateCmd.MarkFlagRequired("size")

	volumeListCmd.Flags().String("pool", "", "Only list volumes in this pool")
}

var volumeCreateCmd = &cobra.Command{
	Use:   "create <pool>",
	Short: "Create a volume in a pool",
	Long: `Create a thick volume in <pool>.

Example:
  lvmpool volume create tank1 --size 10GiB
  lvmpool volume create tank1 --size 1073741824 --uuid 0b7c7ab4-5d4e-4c3b-9a51-1f0c6f8b2d10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sizeStr, _ := cmd.Flags().GetString("size")
		id, _ := cmd.Flags().GetString("uuid")
		thin, _ := cmd.Flags().GetBool("thin")
		share, _ := cmd.Flags().GetInt("share")

		size, err := units.ParseSize(sizeStr)
		if err != nil {
			return fmt.Errorf("%w: %w", lvm.ErrInvalidRequest, err)
		}
		if id == "" {
			id = uuid.NewString()
		}

		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		replica, err := mgr.Volumes.Create(ctx, lvm.CreateVolumeRequest{
			UUID:  id,
			Pool:  args[0],
			Size:  size,
			Thin:  thin,
			Share: lvm.Protocol(share),
		})
		if err != nil {
			return err
		}
		return printReplica(cmd, replica)
	},
}

var volumeGetCmd = &cobra.Command{
	Use:   "get <uuid>",
	Short: "Show a volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		replica, err := mgr.Volumes.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printReplica(cmd, replica)
	},
}

var volumeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List volumes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, _ := cmd.Flags().GetString("pool")

		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		var (
			replicas []*lvm.Replica
			err      error
		)
		if pool != "" {
			replicas, err = mgr.Volumes.ListByPool(ctx, pool)
		} else {
			replicas, err = mgr.Volumes.List(ctx)
		}
		if err != nil {
			return err
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}
		result, err := formatter.FormatReplicaList(replicas)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), result)
		return nil
	},
}

var volumeRemoveCmd = &cobra.Command{
	Use:   "remove <uuid>",
	Short: "Remove a volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn := openManager(ctx)
		defer closeFn()

		if err := mgr.Volumes.Remove(ctx, args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Volume %s removed\n", args[0])
		return nil
	},
}
