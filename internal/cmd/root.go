package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/willfong/san-simulator/internal/config"
	"github.com/willfong/san-simulator/internal/logging"
	"github.com/willfong/san-simulator/internal/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sansim",
	Short: "SAN link performance simulator",
	Long: `Simulate storage traffic over a SAN link and estimate its queueing behaviour.

A load profile (baseline, scheduled plateau, optional spikes and noise) is
generated on a fixed time grid and every sample is evaluated with an M/M/1
model of the link, with and without per-packet encryption cost.

Settings come from, in increasing precedence: built-in defaults, a YAML
file (--config), SANSIM_* environment variables and command-line flags.

Example usage:
  sansim simulate --scenario fc --encryption --out fc_enc.csv
  sansim compare --duration 300 --seed 42
  sansim summarize sim_results.csv`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colors and animations")

	// Silence usage and errors - commands print their own messages
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	// Set version template
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// flagKeys maps command-line flags to config keys. A command binds the
// subset it defines.
var flagKeys = map[string]string{
	"verbose": "verbose",

	"scenario":      "run.scenario",
	"encryption":    "run.encryption",
	"enc-ms-per-mb": "run.enc_ms_per_mb",
	"duration":      "run.duration",
	"dt":            "run.dt",
	"packet-bytes":  "run.packet_bytes",
	"pkt-overhead":  "run.pkt_overhead",

	"base-mb-s":      "load.base_mb_s",
	"peak-mb-s":      "load.peak_mb_s",
	"spike-times":    "load.spike_times",
	"spike-duration": "load.spike_duration",
	"spike-shape":    "load.spike_shape",
	"noise":          "load.noise",
	"seed":           "load.seed",

	"scenarios": "compare.scenarios",
	"workers":   "compare.workers",
	"backup-tb": "compare.backup_sizes_tb",

	"out":        "output.path",
	"compress":   "output.compress",
	"jsonl":      "output.jsonl",
	"report-dir": "output.report_dir",

	"db":            "database.dsn",
	"table":         "database.table",
	"greptime-host": "greptime.host",
}

// loadConfig layers defaults, the config file, environment and the flags of
// cmd, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.NewViper()

	if cfgFile != "" {
		if err := config.ReadFile(v, cfgFile); err != nil {
			return nil, err
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("failed to bind --%s: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newUI returns the terminal UI honouring --no-color.
func newUI() *ui.UI {
	u := ui.New()
	if noColor {
		u.SetNoColor(true)
	}
	return u
}

// commandContext carries the logger and is cancelled on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.NewContext(ctx, logging.New(cfg.Verbose))
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// fail prints err to stderr and returns it so Execute exits non-zero.
func fail(u *ui.UI, err error) error {
	fmt.Fprintln(os.Stderr, u.Error(err.Error()))
	return err
}
