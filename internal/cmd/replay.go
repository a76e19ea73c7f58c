package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/willfong/san-simulator/internal/config"
	"github.com/willfong/san-simulator/internal/sink"
	"github.com/willfong/san-simulator/internal/ui"
	"github.com/willfong/san-simulator/internal/utils"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <results.jsonl>",
	Short: "Load a JSON Lines results log into the configured sinks",
	Long: `Stream a JSON Lines file written with --jsonl into the results CSV and,
when configured, GreptimeDB and MySQL. Records are forwarded in batches
without re-running the simulation.

Example:
  sansim replay run.jsonl --out replayed.csv
  sansim replay run.jsonl --greptime-host localhost
  sansim replay run.jsonl --db "user:pass@tcp(localhost:3306)/san"`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	f := replayCmd.Flags()
	f.String("out", config.OutputPath, "results CSV path")
	f.Bool("compress", false, "compress the results table with xz")
	f.String("greptime-host", "", "also write results to this GreptimeDB host")
	f.String("db", "", "also insert results into this MySQL/MariaDB DSN")
}

func runReplay(cmd *cobra.Command, args []string) error {
	u := newUI()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(u, err)
	}
	ctx, stop := commandContext(cmd, cfg)
	defer stop()

	f, err := os.Open(args[0])
	if err != nil {
		return fail(u, fmt.Errorf("failed to open %s: %w", args[0], err))
	}
	defer f.Close()

	start := time.Now()
	runID := sink.NewRunID()
	sinks, err := openSinks(ctx, u, cfg, runID, start, false)
	if err != nil {
		return fail(u, err)
	}

	spin := u.NewSpinner("Replaying " + args[0])
	spin.Start()
	n, err := sink.Replay(ctx, f, sinks.writer, config.WriteChunkRows)
	if err != nil {
		spin.Error("failed")
		sinks.writer.Close()
		return fail(u, err)
	}
	if err := sinks.writer.Close(); err != nil {
		spin.Error("failed")
		return fail(u, err)
	}
	spin.Success(fmt.Sprintf("%s rows", utils.FormatCount(n)))

	manifest, err := writeManifest(cfg, sinks, "replay", runID, int(n), nil)
	if err != nil {
		return fail(u, err)
	}

	items := []ui.KV{
		{Key: "Source", Value: args[0]},
		{Key: "Rows", Value: utils.FormatCount(n)},
		{Key: "Output", Value: sinks.csvPath},
	}
	if manifest != "" {
		items = append(items, ui.KV{Key: "Manifest", Value: manifest})
	}
	items = append(items, ui.KV{Key: "Elapsed", Value: ui.DurationSince(start)})
	u.Println(u.SummaryBox("Replay Complete", items))
	return nil
}
