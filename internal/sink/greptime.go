package sink

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
	"github.com/willfong/san-simulator/internal/config"
	"github.com/willfong/san-simulator/internal/models"
)

// greptimeClient is the subset of the ingester client used by GreptimeWriter.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// greptimeFields are the numeric columns stored as FLOAT64 fields, in order.
var greptimeFields = []struct {
	name  string
	value func(models.Record) float64
}{
	{"offered_mb_s", func(r models.Record) float64 { return r.OfferedMBps }},
	{"throughput_mb_s", func(r models.Record) float64 { return r.ThroughputMBps }},
	{"effective_throughput_mb_s", func(r models.Record) float64 { return r.EffectiveThroughputMBps }},
	{"capacity_gbps", models.Record.CapacityGbps},
	{"packet_bytes", func(r models.Record) float64 { return r.PacketBytes }},
	{"pkt_overhead_frac", func(r models.Record) float64 { return r.OverheadFrac }},
	{"lambda_pkts_s", func(r models.Record) float64 { return r.ArrivalRate }},
	{"mu_pkts_s", func(r models.Record) float64 { return r.ServiceRate }},
	{"service_time_s", func(r models.Record) float64 { return r.TransmissionTime }},
	{"avg_service_time_s", func(r models.Record) float64 { return r.ServiceTime }},
	{"enc_delay_per_pkt_s", func(r models.Record) float64 { return r.EncryptionDelay }},
	{"utilization_rho", func(r models.Record) float64 { return r.Utilization }},
	{"avg_system_time_s", func(r models.Record) float64 { return r.TimeInSystem }},
	{"avg_queue_time_s", func(r models.Record) float64 { return r.QueueDelay }},
	{"loss_ratio", func(r models.Record) float64 { return r.LossRatio }},
}

// GreptimeWriter writes records to GreptimeDB. Rows are tagged with the run
// id, scenario and encryption mode; the timestamp is the run start plus the
// sample offset.
type GreptimeWriter struct {
	client    greptimeClient
	table     string
	runID     string
	start     time.Time
	batchSize int

	mu     sync.Mutex
	closed bool
	rows   int64
}

// NewGreptimeWriter connects to the configured GreptimeDB frontend.
func NewGreptimeWriter(cfg config.GreptimeConfig, runID string, start time.Time) (*GreptimeWriter, error) {
	gcfg := greptime.NewConfig(cfg.Host).
		WithPort(cfg.Port).
		WithDatabase(cfg.Database)
	if cfg.Username != "" {
		gcfg = gcfg.WithAuth(cfg.Username, cfg.Password)
	}

	cli, err := greptime.NewClient(gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create greptime client: %w", err)
	}

	return newGreptimeWriter(cli, cfg.Table, runID, start, cfg.BatchSize), nil
}

func newGreptimeWriter(cli greptimeClient, tableName, runID string, start time.Time, batchSize int) *GreptimeWriter {
	if batchSize < 1 {
		batchSize = config.GreptimeBatchSize
	}
	return &GreptimeWriter{
		client:    cli,
		table:     tableName,
		runID:     runID,
		start:     start,
		batchSize: batchSize,
	}
}

// WriteRecords sends records in chunks of the configured batch size.
func (w *GreptimeWriter) WriteRecords(ctx context.Context, records []models.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	for start := 0; start < len(records); start += w.batchSize {
		end := min(start+w.batchSize, len(records))

		tbl, err := w.buildTable(records[start:end])
		if err != nil {
			return err
		}
		if _, err := w.client.Write(ctx, tbl); err != nil {
			return fmt.Errorf("greptime write failed: %w", err)
		}
		w.rows += int64(end - start)
	}
	return nil
}

// Rows returns the number of rows written so far.
func (w *GreptimeWriter) Rows() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close marks the writer closed. Writes are synchronous, so nothing is pending.
func (w *GreptimeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *GreptimeWriter) buildTable(records []models.Record) (*table.Table, error) {
	tbl, err := table.New(w.table)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("scenario", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("encryption", types.BOOLEAN); err != nil {
		return nil, err
	}
	for _, f := range greptimeFields {
		if err := tbl.AddFieldColumn(f.name, types.FLOAT64); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddFieldColumn("saturated", types.BOOLEAN); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("congested", types.BOOLEAN); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}

	for _, rec := range records {
		row := make([]any, 0, len(greptimeFields)+6)
		row = append(row, w.runID, rec.Scenario, rec.Encryption)
		for _, f := range greptimeFields {
			v := f.value(rec)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		row = append(row, rec.Saturated, rec.Congested)
		row = append(row, w.start.Add(time.Duration(rec.Time*float64(time.Second))))

		if err := tbl.AddRow(row...); err != nil {
			return nil, fmt.Errorf("failed to add row at t=%v: %w", rec.Time, err)
		}
	}
	return tbl, nil
}
