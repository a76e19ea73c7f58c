package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/willfong/san-simulator/internal/config"
	"github.com/willfong/san-simulator/internal/report"
	"github.com/willfong/san-simulator/internal/simulator"
	"github.com/willfong/san-simulator/internal/sink"
	"github.com/willfong/san-simulator/internal/ui"
	"github.com/willfong/san-simulator/internal/utils"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate one link with or without encryption",
	Long: `Generate a load profile and evaluate the M/M/1 model of one link at every
sample, writing one row per sample to the results table.

The profile is a baseline load with a high-load plateau over a centred
window of max(10s, 20% of the run), optional spikes and optional Gaussian
noise. With
--encryption every packet also pays a per-MB encryption cost.

Optional sinks receive the same rows: --jsonl (JSON Lines file),
--greptime-host (GreptimeDB) and --db (MySQL/MariaDB DSN).

Example:
  sansim simulate
  sansim simulate --scenario fc --encryption --seed 42
  sansim simulate --spike-times 120,300 --spike-shape rect --out spikes.csv
  sansim simulate --compress --db "user:pass@tcp(localhost:3306)/san"`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	f := simulateCmd.Flags()
	f.String("scenario", config.Scenario, "link scenario (ethernet, fc, or a configured link)")
	f.Bool("encryption", false, "add per-packet encryption cost")
	addProfileFlags(f)
	addSinkFlags(f)
}

// addProfileFlags registers the packet model and load profile flags shared
// by simulate and compare.
func addProfileFlags(f *pflag.FlagSet) {
	f.Float64("enc-ms-per-mb", config.EncMsPerMB, "encryption cost in ms per MB of payload")
	f.Float64("duration", config.Duration, "simulated duration in seconds")
	f.Float64("dt", config.Step, "sample interval in seconds")
	f.Int("packet-bytes", config.PacketBytes, "payload bytes per packet")
	f.Float64("pkt-overhead", config.PacketOverhead, "packetization overhead fraction")

	f.Float64("base-mb-s", config.BaseMBps, "baseline offered load (MB/s)")
	f.Float64("peak-mb-s", config.PeakMBps, "plateau offered load (MB/s)")
	f.StringSlice("spike-times", nil, "spike start times in seconds (comma separated)")
	f.Float64("spike-duration", config.SpikeDuration, "spike duration in seconds")
	f.String("spike-shape", config.SpikeShape, "spike shape: gaussian or rect")
	f.Float64("noise", config.Noise, "noise level as a fraction of the baseline (0 = off)")
	f.Int64("seed", 0, "random seed for reproducibility (0 = random)")
}

// addSinkFlags registers the output flags.
func addSinkFlags(f *pflag.FlagSet) {
	f.String("out", config.OutputPath, "results CSV path")
	f.Bool("compress", false, "compress the results table with xz")
	f.String("jsonl", "", "also write results as JSON Lines to this path")
	f.String("greptime-host", "", "also write results to this GreptimeDB host")
	f.String("db", "", "also insert results into this MySQL/MariaDB DSN")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	u := newUI()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(u, err)
	}
	ctx, stop := commandContext(cmd, cfg)
	defer stop()

	link, err := cfg.RunLink()
	if err != nil {
		return fail(u, err)
	}
	spec, err := buildRunSpec(cfg, link)
	if err != nil {
		return fail(u, err)
	}

	u.Println(u.Header("SAN Performance Simulator"))
	u.Println()
	u.Println(u.KeyValue("Scenario", fmt.Sprintf("%s (%g Gbps)", link.Name, link.CapacityGbps())))
	u.Println(u.KeyValue("Encryption", onOff(spec.Encryption)))
	u.Println(u.KeyValue("Load", fmt.Sprintf("%s base / %s peak", utils.FormatRate(cfg.Load.BaseMBps), utils.FormatRate(cfg.Load.PeakMBps))))
	u.Println(u.KeyValue("Samples", fmt.Sprintf("%s every %gs", utils.FormatCount(int64(spec.Profile.SampleCount())), cfg.Run.Step)))
	if cfg.Load.Seed != 0 {
		u.Println(u.KeyValue("Seed", fmt.Sprintf("%d", cfg.Load.Seed)))
	}
	u.Println()

	start := time.Now()
	spin := u.NewSpinner("Evaluating " + spec.Name())
	spin.Start()
	res, err := simulator.Run(ctx, spec)
	if err != nil {
		spin.Error("failed")
		return fail(u, err)
	}
	spin.Success(fmt.Sprintf("%s rows in %s", utils.FormatCount(int64(len(res.Records))), ui.DurationSince(start)))

	runID := sink.NewRunID()
	sinks, err := openSinks(ctx, u, cfg, runID, start, true)
	if err != nil {
		return fail(u, err)
	}
	if err := sinks.writeAll(ctx, u, res.Records); err != nil {
		return fail(u, err)
	}
	manifest, err := writeManifest(cfg, sinks, "simulate", runID, len(res.Records), []*simulator.Result{res})
	if err != nil {
		return fail(u, err)
	}

	summaries := report.Summarize(res.Records)
	if len(summaries) == 0 {
		return nil
	}
	s := summaries[0]

	items := []ui.KV{
		{Key: "Run", Value: spec.Name()},
		{Key: "Seed", Value: fmt.Sprintf("%d", res.Seed)},
		{Key: "Samples", Value: utils.FormatCount(int64(s.Samples))},
		{Key: "Avg Throughput", Value: utils.FormatRate(s.AvgThroughputMBps)},
		{Key: "Avg Effective", Value: utils.FormatRate(s.AvgEffectiveMBps)},
		{Key: "Max Latency", Value: latencyText(s.MaxLatencyMs)},
		{Key: "P95 Latency", Value: latencyText(s.P95LatencyMs)},
		{Key: "Avg Loss", Value: utils.FormatPercent(s.AvgLossPct)},
		{Key: "Saturated", Value: utils.FormatPercent(s.SaturatedPct)},
		{Key: "Congested", Value: utils.FormatPercent(s.CongestedPct)},
		{Key: "Output", Value: sinks.csvPath},
	}
	if manifest != "" {
		items = append(items, ui.KV{Key: "Manifest", Value: manifest})
	}
	items = append(items, ui.KV{Key: "Elapsed", Value: ui.DurationSince(start)})

	u.Println(u.SummaryBox("Simulation Complete", items))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// latencyText shows a missing finite latency as unbounded.
func latencyText(ms float64) string {
	if math.IsNaN(ms) {
		return utils.Unbounded
	}
	return utils.FormatMillis(ms)
}
