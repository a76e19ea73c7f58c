package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit conversions used across the simulator. 1 MB = 1e6 bytes.
const (
	BitsPerMB  = 8e6
	MBPerTB    = 1000 * 1024 // sizing convention used by backup-window estimates
	SecPerHour = 3600
)

// Unbounded is the display form of an infinite latency or window.
const Unbounded = "unbounded"

// FormatRate formats a rate in MB/s (e.g., "125.00 MB/s").
func FormatRate(mbps float64) string {
	if math.IsNaN(mbps) {
		return "n/a"
	}
	if math.IsInf(mbps, 1) {
		return Unbounded
	}
	return fmt.Sprintf("%.2f MB/s", mbps)
}

// FormatSeconds formats a duration given in seconds using the largest unit
// that keeps the value readable (s, ms, µs, ns).
func FormatSeconds(sec float64) string {
	switch {
	case math.IsNaN(sec):
		return "n/a"
	case math.IsInf(sec, 1):
		return Unbounded
	case sec == 0:
		return "0s"
	}

	abs := math.Abs(sec)
	switch {
	case abs >= 1:
		return fmt.Sprintf("%.3fs", sec)
	case abs >= 1e-3:
		return fmt.Sprintf("%.3fms", sec*1e3)
	case abs >= 1e-6:
		return fmt.Sprintf("%.3fµs", sec*1e6)
	default:
		return fmt.Sprintf("%.1fns", sec*1e9)
	}
}

// FormatMillis formats a latency already expressed in milliseconds.
func FormatMillis(ms float64) string {
	return FormatSeconds(ms / 1e3)
}

// FormatPercent formats a percentage value (e.g., 12.5 -> "12.50%").
func FormatPercent(pct float64) string {
	if math.IsNaN(pct) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatHours formats a window length in hours.
func FormatHours(h float64) string {
	if math.IsNaN(h) {
		return "n/a"
	}
	if math.IsInf(h, 1) {
		return Unbounded
	}
	return fmt.Sprintf("%.2fh", h)
}

// FormatCount formats an integer with thousands separators (e.g., "6,001").
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + formatWithSeparator(-n, ",")
	}
	return formatWithSeparator(n, ",")
}

// formatWithSeparator adds thousands separators to a number
func formatWithSeparator(n int64, sep string) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 || sep == "" {
		return str
	}

	var result strings.Builder
	startOffset := len(str) % 3
	if startOffset == 0 {
		startOffset = 3
	}

	result.WriteString(str[:startOffset])
	for i := startOffset; i < len(str); i += 3 {
		result.WriteString(sep)
		result.WriteString(str[i : i+3])
	}

	return result.String()
}
