package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/lvmpool/internal/libvirt"
	"github.com/jbweber/lvmpool/internal/output"
)

// Libvirt integration commands
var libvirtCmd = &cobra.Command{
	Use:   "libvirt",
	Short: "Inspect the libvirt integration",
	Long: `Inspect the libvirt integration.

With libvirt.enabled set, every pool is also defined in libvirt as a
logical storage pool so guests can use its volumes.`,
}

func init() {
	libvirtCmd.AddCommand(libvirtStatusCmd)
	libvirtCmd.AddCommand(libvirtTestConnCmd)
}

func connectLibvirt(cmd *cobra.Command) (*libvirt.Client, func(), error) {
	client, err := libvirt.ConnectWithContext(cmd.Context(), cfg.Libvirt.Socket, cfg.Libvirt.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	return client, func() {
		if closeErr := client.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
		}
	}, nil
}

var libvirtStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List logical pools published to libvirt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, closeFn, err := connectLibvirt(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		pools, err := client.Publisher(cfg.LVM.DevDir).ListPublished(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch output.Format(outputFormat) {
		case output.FormatJSON:
			data, err := json.MarshalIndent(pools, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal pools to JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		case output.FormatYAML:
			data, err := yaml.Marshal(pools)
			if err != nil {
				return fmt.Errorf("failed to marshal pools to YAML: %w", err)
			}
			fmt.Fprint(out, string(data))
			return nil
		}

		if len(pools) == 0 {
			fmt.Fprintln(out, "No logical pools published")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if !noHeaders {
			fmt.Fprintln(w, "NAME\tVG\tSTATE\tAUTOSTART\tCAPACITY\tAVAILABLE")
		}
		for _, p := range pools {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
				p.Name, p.VolumeGroup, p.State, p.Autostart,
				datasize.ByteSize(p.Capacity).HumanReadable(),
				datasize.ByteSize(p.Available).HumanReadable())
		}
		return w.Flush()
	},
}

var libvirtTestConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test libvirt connection",
	Long:  `Test connectivity to the libvirt daemon and display version information.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Testing libvirt connection on %s...\n", cfg.Libvirt.Socket)

		client, closeFn, err := connectLibvirt(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		fmt.Fprintln(out, "✓ Connected to libvirt daemon")

		version, err := client.Ping()
		if err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
		fmt.Fprintf(out, "✓ Libvirt version: %s\n", version)

		fmt.Fprintln(out, "\nConnection test successful!")
		return nil
	},
}
