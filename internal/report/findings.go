package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/willfong/san-simulator/internal/utils"
)

// DefaultWidth is the wrap width used when the terminal width is unknown.
const DefaultWidth = 78

// Findings returns a fixed-template readout per scenario, wrapped to width.
func Findings(summaries []Summary, degradation []DegradationRow, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	var b strings.Builder
	for _, name := range scenarios(summaries) {
		var parts []string

		for _, enc := range []bool{false, true} {
			s, ok := Find(summaries, name, enc)
			if !ok {
				continue
			}
			mode := "without encryption"
			if enc {
				mode = "with encryption"
			}
			parts = append(parts, fmt.Sprintf("%s: worst finite latency %s, p95 %s, saturated in %s of samples, average loss %s",
				mode, latency(s.MaxLatencyMs), latency(s.P95LatencyMs),
				utils.FormatPercent(s.SaturatedPct), utils.FormatPercent(s.AvgLossPct)))
		}

		for _, d := range degradation {
			if d.Scenario != name {
				continue
			}
			parts = append(parts, fmt.Sprintf("encryption costs %s of effective throughput and changes average latency by %s",
				utils.FormatPercent(d.ThroughputDegradationPct), utils.FormatPercent(d.LatencyInflationPct)))
		}

		line := fmt.Sprintf("- %s: %s.", name, strings.Join(parts, "; "))
		b.WriteString(wordwrap.String(line, width))
		b.WriteString("\n")
	}
	return b.String()
}

func latency(ms float64) string {
	if math.IsNaN(ms) {
		return utils.Unbounded
	}
	return utils.FormatMillis(ms)
}
