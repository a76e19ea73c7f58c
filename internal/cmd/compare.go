package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/willfong/san-simulator/internal/models"
	"github.com/willfong/san-simulator/internal/report"
	"github.com/willfong/san-simulator/internal/simulator"
	"github.com/willfong/san-simulator/internal/sink"
	"github.com/willfong/san-simulator/internal/ui"
	"github.com/willfong/san-simulator/internal/utils"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare links with and without encryption",
	Long: `Run every configured scenario with encryption off and on, in parallel,
and write the union of all runs to one results table.

Both encryption modes of a link see the same load profile, so differences
come from the service model only. Summary, encryption degradation and
backup-window tables are written next to the results (or to --report-dir).

Example:
  sansim compare
  sansim compare --scenarios ethernet,fc,infiniband --config links.yaml
  sansim compare --seed 42 --workers 2 --report-dir reports/`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	f := compareCmd.Flags()
	f.StringSlice("scenarios", nil, "scenarios to compare (default: ethernet,fc)")
	f.Int("workers", 0, "concurrent runs (0 = one per CPU)")
	f.StringSlice("backup-tb", nil, "backup sizes in TB for window estimates (default: 1,5,10)")
	f.String("report-dir", "", "directory for report tables (default: next to --out)")
	addProfileFlags(f)
	addSinkFlags(f)
}

func runCompare(cmd *cobra.Command, args []string) error {
	u := newUI()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(u, err)
	}
	ctx, stop := commandContext(cmd, cfg)
	defer stop()

	links, err := cfg.CompareLinks()
	if err != nil {
		return fail(u, err)
	}
	base, err := buildRunSpec(cfg, links[0])
	if err != nil {
		return fail(u, err)
	}
	specs := simulator.CompareSpecs(base, links, cfg.Load.Seed)
	workers := simulator.GetWorkerCount(cfg.Compare.Workers)

	u.Println(u.Header("SAN Link Comparison"))
	u.Println()
	u.Println(u.KeyValue("Runs", fmt.Sprintf("%d (%d links x encryption off/on)", len(specs), len(links))))
	u.Println(u.KeyValue("Workers", fmt.Sprintf("%d", workers)))
	u.Println(u.KeyValue("Samples", fmt.Sprintf("%s per run", utils.FormatCount(int64(base.Profile.SampleCount())))))
	if cfg.Load.Seed != 0 {
		u.Println(u.KeyValue("Seed", fmt.Sprintf("%d", cfg.Load.Seed)))
	}
	u.Println()

	start := time.Now()
	mp := u.NewMultiProgress()
	for _, spec := range specs {
		mp.AddItem(spec.Name(), int64(spec.Profile.SampleCount()))
	}
	mp.Render()

	results, err := simulator.RunAll(ctx, specs, simulator.BatchOptions{
		Workers: workers,
		OnStart: func(_ int, spec simulator.RunSpec) {
			mp.Start(spec.Name())
		},
		OnDone: func(i int, res *simulator.Result, err error) {
			name := specs[i].Name()
			if err != nil {
				mp.Fail(name, err)
				return
			}
			mp.Complete(name, fmt.Sprintf("%s rows, seed %d", utils.FormatCount(int64(len(res.Records))), res.Seed))
		},
	})
	mp.Finish()
	if err != nil {
		return fail(u, err)
	}
	u.Println()

	records := simulator.Union(results)

	runID := sink.NewRunID()
	sinks, err := openSinks(ctx, u, cfg, runID, start, true)
	if err != nil {
		return fail(u, err)
	}
	if err := sinks.writeAll(ctx, u, records); err != nil {
		return fail(u, err)
	}
	manifest, err := writeManifest(cfg, sinks, "compare", runID, len(records), results)
	if err != nil {
		return fail(u, err)
	}

	dir := cfg.Output.ReportDir
	if dir == "" {
		dir = filepath.Dir(sinks.csvPath)
	}
	tables, err := printReport(u, records, cfg.Compare.BackupSizesTB, dir)
	if err != nil {
		return fail(u, err)
	}

	items := []ui.KV{
		{Key: "Runs", Value: fmt.Sprintf("%d", len(results))},
		{Key: "Rows", Value: utils.FormatCount(int64(len(records)))},
		{Key: "Output", Value: sinks.csvPath},
	}
	if manifest != "" {
		items = append(items, ui.KV{Key: "Manifest", Value: manifest})
	}
	items = append(items,
		ui.KV{Key: "Reports", Value: fmt.Sprintf("%d tables in %s", len(tables), dir)},
		ui.KV{Key: "Elapsed", Value: ui.DurationSince(start)},
	)
	u.Println(u.SummaryBox("Comparison Complete", items))
	return nil
}

// printReport prints the summary, degradation and backup tables plus the
// findings, and writes the tables to dir when it is not empty.
func printReport(u *ui.UI, records []models.Record, sizesTB []float64, dir string) ([]string, error) {
	summaries := report.Summarize(records)
	degradation := report.Degradation(summaries)
	windows := report.BackupWindows(summaries, sizesTB)

	u.Section("Per-run summary")
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Scenario,
			onOff(s.Encryption),
			utils.FormatRate(s.AvgThroughputMBps),
			utils.FormatRate(s.AvgEffectiveMBps),
			latencyText(s.MaxLatencyMs),
			utils.FormatPercent(s.AvgLossPct),
			utils.FormatPercent(s.SaturatedPct),
		})
	}
	u.Printf("%s", u.Table([]string{"Scenario", "Enc", "Avg Tput", "Avg Effective", "Max Latency", "Avg Loss", "Saturated"}, rows))

	if len(degradation) > 0 {
		u.Section("Encryption degradation")
		rows = rows[:0]
		for _, d := range degradation {
			rows = append(rows, []string{
				d.Scenario,
				utils.FormatRate(d.BaseThroughputMBps),
				utils.FormatRate(d.EncThroughputMBps),
				utils.FormatPercent(d.ThroughputDegradationPct),
				utils.FormatPercent(d.LatencyInflationPct),
			})
		}
		u.Printf("%s", u.Table([]string{"Scenario", "Base Tput", "Enc Tput", "Tput Loss", "Latency Change"}, rows))
	}

	if len(windows) > 0 {
		u.Section("Backup windows")
		rows = rows[:0]
		for _, w := range windows {
			rows = append(rows, []string{
				w.Scenario,
				onOff(w.Encryption),
				fmt.Sprintf("%g TB", w.SizeTB),
				utils.FormatHours(w.Hours),
			})
		}
		u.Printf("%s", u.Table([]string{"Scenario", "Enc", "Size", "Window"}, rows))
	}

	u.Section("Findings")
	u.Printf("%s", report.Findings(summaries, degradation, min(u.Width, report.DefaultWidth)))

	if dir == "" {
		return nil, nil
	}
	return report.WriteTables(dir, summaries, degradation, windows)
}
