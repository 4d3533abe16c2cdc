package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/lvmpool/internal/lvm"
)

func printPool(cmd *cobra.Command, pool *lvm.Pool) error {
	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	result, err := formatter.FormatPool(pool)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), result)
	return nil
}

func printReplica(cmd *cobra.Command, replica *lvm.Replica) error {
	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	result, err := formatter.FormatReplica(replica)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), result)
	return nil
}
