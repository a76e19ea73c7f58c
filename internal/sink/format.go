package sink

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/willfong/san-simulator/internal/models"
)

// FormatFloat formats a metric for CSV. Values use the shortest form that
// parses back exactly, +Inf is written as "inf" and NaN as an empty cell.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseFloat parses a CSV metric. Empty cells are NaN.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// FormatBool converts a boolean to "1" or "0" for CSV/database compatibility
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// FormatRow converts a record to CSV cells in models.Columns order
func FormatRow(r models.Record) []string {
	values := r.Values()
	row := make([]string, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case float64:
			row[i] = FormatFloat(v)
		case bool:
			row[i] = FormatBool(v)
		case string:
			row[i] = v
		default:
			row[i] = fmt.Sprint(v)
		}
	}
	return row
}

// columnIndex maps header names to positions and checks every results
// column is present.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range models.Columns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// parseRow converts CSV cells back into a record. Derived columns
// (throughput_Mbps) are ignored.
func parseRow(idx map[string]int, row []string) (models.Record, error) {
	var rec models.Record
	var err error

	float := func(col string) float64 {
		if err != nil {
			return 0
		}
		var f float64
		f, err = ParseFloat(row[idx[col]])
		if err != nil {
			err = fmt.Errorf("column %s: %w", col, err)
		}
		return f
	}
	flag := func(col string) bool {
		if err != nil {
			return false
		}
		var b bool
		b, err = strconv.ParseBool(strings.TrimSpace(row[idx[col]]))
		if err != nil {
			err = fmt.Errorf("column %s: %w", col, err)
		}
		return b
	}

	rec.Time = float("time_s")
	rec.Scenario = row[idx["scenario"]]
	rec.Encryption = flag("encryption")
	rec.OfferedMBps = float("offered_MB_s")
	rec.ThroughputMBps = float("throughput_MB_s")
	rec.EffectiveThroughputMBps = float("effective_throughput_MB_s")
	rec.CapacityBps = float("capacity_Gbps") * 1e9
	rec.PacketBytes = float("packet_bytes")
	rec.OverheadFrac = float("pkt_overhead_frac")
	rec.ArrivalRate = float("lambda_pkts_s")
	rec.ServiceRate = float("mu_pkts_s")
	rec.TransmissionTime = float("service_time_s")
	rec.ServiceTime = float("avg_service_time_s")
	rec.EncryptionDelay = float("enc_delay_per_pkt_s")
	rec.Utilization = float("utilization_rho")
	rec.TimeInSystem = float("avg_system_time_s")
	rec.QueueDelay = float("avg_queue_time_s")
	rec.LossRatio = float("loss_ratio")
	rec.Saturated = flag("saturated")
	rec.Congested = flag("congested")

	return rec, err
}
