package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbweber/lvmpool/internal/config"
	"github.com/jbweber/lvmpool/internal/libvirt"
	"github.com/jbweber/lvmpool/internal/log"
	"github.com/jbweber/lvmpool/internal/lvm"
	"github.com/jbweber/lvmpool/internal/output"
	"github.com/jbweber/lvmpool/internal/shell"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	configPath   string
	logLevel     string
	logJSON      bool
	outputFormat string
	noHeaders    bool
	showBytes    bool
)

// cfg is loaded once per invocation by rootCmd's PersistentPreRunE.
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	if kind := lvm.Kind(err); kind != lvm.KindInternal {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", kind, err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

var rootCmd = &cobra.Command{
	Use:   "lvmpool",
	Short: "lvmpool - LVM backed storage pools and volumes",
	Long: `lvmpool manages storage pools backed by LVM volume groups and the
volumes (logical volumes) inside them.

A pool is a volume group built over one or more block devices. A volume is
a thick logical volume named by its uuid and exposed as a local device node.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			loaded.Log.Level = string(level)
		}
		if cmd.Flags().Changed("log-json") {
			loaded.Log.JSON = logJSON
		}
		if err := output.ValidateFormat(outputFormat); err != nil {
			return err
		}

		log.Init(log.Config{
			Level:      log.Level(loaded.Log.Level),
			JSONOutput: loaded.Log.JSON,
		})
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, yaml, json)")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false, "Omit table headers")
	rootCmd.PersistentFlags().BoolVar(&showBytes, "bytes", false, "Print sizes in bytes in tables")

	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(libvirtCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	// Skip config loading
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lvmpool %s (commit: %s)\n", version, commit)
	},
}

// openManager builds the LVM manager from the loaded configuration. When
// libvirt publishing is enabled the returned close function releases the
// libvirt connection; a daemon that cannot be reached only disables
// publishing.
func openManager(ctx context.Context) (*lvm.Manager, func()) {
	opts := []lvm.Option{
		lvm.WithBinary(cfg.LVM.Binary),
		lvm.WithDevDir(cfg.LVM.DevDir),
		lvm.WithListConcurrency(cfg.Pools.ListConcurrency),
		lvm.WithAllowUnsupported(cfg.Volumes.AllowUnsupported),
	}

	closeFn := func() {}
	if cfg.Libvirt.Enabled {
		client, err := libvirt.ConnectWithContext(ctx, cfg.Libvirt.Socket, cfg.Libvirt.Timeout)
		if err != nil {
			log.Logger.Warn().Err(err).Str("socket", cfg.Libvirt.Socket).
				Msg("libvirt unavailable, pools will not be published")
		} else {
			opts = append(opts, lvm.WithPublisher(client.Publisher(cfg.LVM.DevDir)))
			closeFn = func() {
				if err := client.Close(); err != nil {
					log.Logger.Warn().Err(err).Msg("failed to close libvirt connection")
				}
			}
		}
	}

	return lvm.NewManager(shell.NewRunner(cfg.Exec.Timeout), opts...), closeFn
}

func newFormatter() (output.Formatter, error) {
	return output.NewFormatter(output.Options{
		Format:    output.Format(outputFormat),
		NoHeaders: noHeaders,
		Bytes:     showBytes,
	})
}
