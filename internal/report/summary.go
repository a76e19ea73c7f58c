// Package report condenses a results table into per-scenario summaries,
// encryption degradation, backup window estimates and short findings.
package report

import (
	"math"
	"sort"

	"github.com/willfong/san-simulator/internal/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the rows of one scenario and encryption mode.
// Latency statistics cover finite samples only and are NaN when every
// sample was unstable.
type Summary struct {
	Scenario   string
	Encryption bool
	Samples    int

	AvgThroughputMBps float64
	MaxThroughputMBps float64
	MinThroughputMBps float64
	AvgEffectiveMBps  float64

	AvgLatencyMs float64
	MaxLatencyMs float64
	P95LatencyMs float64

	AvgEncDelayMs float64
	AvgLossPct    float64
	SaturatedPct  float64
	CongestedPct  float64
}

type groupKey struct {
	scenario   string
	encryption bool
}

// Summarize groups records by scenario and encryption mode, in first-seen
// order.
func Summarize(records []models.Record) []Summary {
	var order []groupKey
	groups := make(map[groupKey][]models.Record)
	for _, r := range records {
		k := groupKey{r.Scenario, r.Encryption}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	summaries := make([]Summary, 0, len(order))
	for _, k := range order {
		summaries = append(summaries, summarize(k, groups[k]))
	}
	return summaries
}

func summarize(k groupKey, rows []models.Record) Summary {
	n := len(rows)
	tput := make([]float64, n)
	eff := make([]float64, n)
	enc := make([]float64, n)
	loss := make([]float64, n)
	var latency []float64
	var saturated, congested int

	for i, r := range rows {
		tput[i] = r.ThroughputMBps
		eff[i] = r.EffectiveThroughputMBps
		enc[i] = r.EncryptionDelay * 1e3
		loss[i] = r.LossRatio * 100
		if !math.IsInf(r.TimeInSystem, 0) && !math.IsNaN(r.TimeInSystem) {
			latency = append(latency, r.TimeInSystem*1e3)
		}
		if r.Saturated {
			saturated++
		}
		if r.Congested {
			congested++
		}
	}

	s := Summary{
		Scenario:          k.scenario,
		Encryption:        k.encryption,
		Samples:           n,
		AvgThroughputMBps: stat.Mean(tput, nil),
		MaxThroughputMBps: floats.Max(tput),
		MinThroughputMBps: floats.Min(tput),
		AvgEffectiveMBps:  stat.Mean(eff, nil),
		AvgEncDelayMs:     stat.Mean(enc, nil),
		AvgLossPct:        stat.Mean(loss, nil),
		SaturatedPct:      100 * float64(saturated) / float64(n),
		CongestedPct:      100 * float64(congested) / float64(n),
		AvgLatencyMs:      math.NaN(),
		MaxLatencyMs:      math.NaN(),
		P95LatencyMs:      math.NaN(),
	}

	if len(latency) > 0 {
		sort.Float64s(latency)
		s.AvgLatencyMs = stat.Mean(latency, nil)
		s.MaxLatencyMs = latency[len(latency)-1]
		s.P95LatencyMs = stat.Quantile(0.95, stat.Empirical, latency, nil)
	}
	return s
}

// Find returns the summary for a scenario and encryption mode.
func Find(summaries []Summary, scenario string, encryption bool) (Summary, bool) {
	for _, s := range summaries {
		if s.Scenario == scenario && s.Encryption == encryption {
			return s, true
		}
	}
	return Summary{}, false
}

// scenarios returns scenario names in first-seen order.
func scenarios(summaries []Summary) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range summaries {
		if !seen[s.Scenario] {
			seen[s.Scenario] = true
			names = append(names, s.Scenario)
		}
	}
	return names
}
