package report

import (
	"math"

	"github.com/willfong/san-simulator/internal/utils"
)

// DegradationRow compares the encrypted and unencrypted runs of a scenario.
type DegradationRow struct {
	Scenario string

	BaseThroughputMBps       float64
	EncThroughputMBps        float64
	ThroughputDegradationPct float64

	BaseLatencyMs       float64
	EncLatencyMs        float64
	LatencyInflationPct float64
}

// Degradation computes encryption cost for every scenario that has both
// modes. Throughput compares average effective throughput, latency compares
// average finite time in system.
func Degradation(summaries []Summary) []DegradationRow {
	var rows []DegradationRow
	for _, name := range scenarios(summaries) {
		base, ok := Find(summaries, name, false)
		if !ok {
			continue
		}
		enc, ok := Find(summaries, name, true)
		if !ok {
			continue
		}
		rows = append(rows, DegradationRow{
			Scenario:                 name,
			BaseThroughputMBps:       base.AvgEffectiveMBps,
			EncThroughputMBps:        enc.AvgEffectiveMBps,
			ThroughputDegradationPct: relative(base.AvgEffectiveMBps, base.AvgEffectiveMBps-enc.AvgEffectiveMBps),
			BaseLatencyMs:            base.AvgLatencyMs,
			EncLatencyMs:             enc.AvgLatencyMs,
			LatencyInflationPct:      relative(base.AvgLatencyMs, enc.AvgLatencyMs-base.AvgLatencyMs),
		})
	}
	return rows
}

// relative returns delta as a percentage of base. A zero base gives 0.
func relative(base, delta float64) float64 {
	if base == 0 {
		return 0
	}
	return delta / base * 100
}

// BackupWindow is the time to move a dataset at a run's average effective
// throughput.
type BackupWindow struct {
	Scenario       string
	Encryption     bool
	SizeTB         float64
	ThroughputMBps float64
	Hours          float64
}

// BackupWindows estimates backup duration for each summary and size.
// Zero throughput gives +Inf hours.
func BackupWindows(summaries []Summary, sizesTB []float64) []BackupWindow {
	windows := make([]BackupWindow, 0, len(summaries)*len(sizesTB))
	for _, s := range summaries {
		for _, tb := range sizesTB {
			windows = append(windows, BackupWindow{
				Scenario:       s.Scenario,
				Encryption:     s.Encryption,
				SizeTB:         tb,
				ThroughputMBps: s.AvgEffectiveMBps,
				Hours:          BackupHours(tb, s.AvgEffectiveMBps),
			})
		}
	}
	return windows
}

// BackupHours returns hours to move sizeTB at throughputMBps.
func BackupHours(sizeTB, throughputMBps float64) float64 {
	if !(throughputMBps > 0) {
		return math.Inf(1)
	}
	return sizeTB * utils.MBPerTB / throughputMBps / utils.SecPerHour
}
