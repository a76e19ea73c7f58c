package report

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/willfong/san-simulator/internal/sink"
)

// Table file names written by WriteTables.
const (
	SummaryFile     = "summary.csv"
	DegradationFile = "degradation.csv"
	BackupFile      = "backup_windows.csv"
)

var (
	summaryHeaders = []string{
		"scenario", "encryption", "samples",
		"avg_throughput_MB_s", "max_throughput_MB_s", "min_throughput_MB_s", "avg_effective_throughput_MB_s",
		"avg_latency_ms", "max_latency_ms", "p95_latency_ms",
		"avg_enc_delay_ms", "avg_loss_pct", "saturated_pct", "congested_pct",
	}
	degradationHeaders = []string{
		"scenario",
		"base_throughput_MB_s", "enc_throughput_MB_s", "throughput_degradation_pct",
		"base_latency_ms", "enc_latency_ms", "latency_inflation_pct",
	}
	backupHeaders = []string{
		"scenario", "encryption", "size_TB", "throughput_MB_s", "hours",
	}
)

// WriteTables writes the summary, degradation and backup tables into dir
// and returns their paths.
func WriteTables(dir string, summaries []Summary, degradation []DegradationRow, windows []BackupWindow) ([]string, error) {
	f := sink.FormatFloat

	summaryRows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		summaryRows = append(summaryRows, []string{
			s.Scenario, sink.FormatBool(s.Encryption), strconv.Itoa(s.Samples),
			f(s.AvgThroughputMBps), f(s.MaxThroughputMBps), f(s.MinThroughputMBps), f(s.AvgEffectiveMBps),
			f(s.AvgLatencyMs), f(s.MaxLatencyMs), f(s.P95LatencyMs),
			f(s.AvgEncDelayMs), f(s.AvgLossPct), f(s.SaturatedPct), f(s.CongestedPct),
		})
	}

	degradationRows := make([][]string, 0, len(degradation))
	for _, d := range degradation {
		degradationRows = append(degradationRows, []string{
			d.Scenario,
			f(d.BaseThroughputMBps), f(d.EncThroughputMBps), f(d.ThroughputDegradationPct),
			f(d.BaseLatencyMs), f(d.EncLatencyMs), f(d.LatencyInflationPct),
		})
	}

	backupRows := make([][]string, 0, len(windows))
	for _, w := range windows {
		backupRows = append(backupRows, []string{
			w.Scenario, sink.FormatBool(w.Encryption), f(w.SizeTB), f(w.ThroughputMBps), f(w.Hours),
		})
	}

	tables := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{SummaryFile, summaryHeaders, summaryRows},
		{DegradationFile, degradationHeaders, degradationRows},
		{BackupFile, backupHeaders, backupRows},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeTable(path, t.headers, t.rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable(path string, headers []string, rows [][]string) error {
	w, err := sink.NewCSVWriter(sink.CSVWriterConfig{Path: path, Headers: headers})
	if err != nil {
		return err
	}
	if err := w.WriteRows(rows); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w.Close()
}
