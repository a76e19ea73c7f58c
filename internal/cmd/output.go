package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/willfong/san-simulator/internal/config"
	"github.com/willfong/san-simulator/internal/models"
	"github.com/willfong/san-simulator/internal/profile"
	"github.com/willfong/san-simulator/internal/simulator"
	"github.com/willfong/san-simulator/internal/sink"
	"github.com/willfong/san-simulator/internal/ui"
)

// buildRunSpec turns the run and load sections into a RunSpec for link.
func buildRunSpec(cfg *config.Config, link models.Link) (simulator.RunSpec, error) {
	shape, err := profile.ParseSpikeShape(cfg.Load.SpikeShape)
	if err != nil {
		return simulator.RunSpec{}, err
	}

	return simulator.RunSpec{
		Link:       link,
		Encryption: cfg.Run.Encryption,
		Profile: profile.Config{
			Duration:      cfg.Run.Duration,
			Step:          cfg.Run.Step,
			BaseLoad:      cfg.Load.BaseMBps,
			PeakLoad:      cfg.Load.PeakMBps,
			SpikeTimes:    append([]float64(nil), cfg.Load.SpikeTimes...),
			SpikeDuration: cfg.Load.SpikeDuration,
			SpikeShape:    shape,
			NoiseLevel:    cfg.Load.Noise,
			Seed:          cfg.Load.Seed,
		},
		PacketBytes:  float64(cfg.Run.PacketBytes),
		OverheadFrac: cfg.Run.OverheadFrac,
		EncMsPerMB:   cfg.Run.EncMsPerMB,
	}, nil
}

// sinkSet is the writers opened for one command.
type sinkSet struct {
	writer  *sink.MultiWriter
	csvPath string
	outputs []string
}

// openSinks opens the CSV table plus every optional sink enabled in cfg.
// Already opened writers are closed if a later one fails.
func openSinks(ctx context.Context, u *ui.UI, cfg *config.Config, runID string, start time.Time, withJSONL bool) (*sinkSet, error) {
	var writers []sink.RecordWriter
	abort := func(err error) (*sinkSet, error) {
		sink.NewMultiWriter(writers...).Close()
		return nil, err
	}

	csvWriter, err := sink.NewCSVWriter(sink.CSVWriterConfig{
		Path:     cfg.Output.Path,
		Compress: cfg.Output.Compress,
		XZPreset: cfg.Output.XZPreset,
	})
	if err != nil {
		return nil, err
	}
	writers = append(writers, csvWriter)
	set := &sinkSet{csvPath: csvWriter.Path(), outputs: []string{csvWriter.Path()}}

	if withJSONL && cfg.Output.JSONLPath != "" {
		jw, err := sink.NewJSONLWriter(cfg.Output.JSONLPath)
		if err != nil {
			return abort(err)
		}
		writers = append(writers, jw)
		set.outputs = append(set.outputs, jw.Path())
	}

	if cfg.Greptime.Enabled() {
		spin := u.NewSpinner("Connecting to GreptimeDB")
		spin.Start()
		gw, err := sink.NewGreptimeWriter(cfg.Greptime, runID, start)
		if err != nil {
			spin.Error("failed")
			return abort(err)
		}
		spin.Success("connected")
		writers = append(writers, gw)
		set.outputs = append(set.outputs, fmt.Sprintf("greptime://%s:%d/%s.%s",
			cfg.Greptime.Host, cfg.Greptime.Port, cfg.Greptime.Database, cfg.Greptime.Table))
	}

	if cfg.Database.Enabled() {
		spin := u.NewSpinner("Connecting to database")
		spin.Start()
		mw, err := sink.NewMySQLWriter(ctx, cfg.Database, runID)
		if err != nil {
			spin.Error("failed")
			return abort(err)
		}
		spin.Success("connected")
		writers = append(writers, mw)
		set.outputs = append(set.outputs, "mysql:"+cfg.Database.Table)
	}

	set.writer = sink.NewMultiWriter(writers...)
	return set, nil
}

// writeAll hands records to the sinks in chunks, tracking progress, then
// closes them.
func (s *sinkSet) writeAll(ctx context.Context, u *ui.UI, records []models.Record) error {
	bar := u.NewProgressBar("Writing results", int64(len(records)))
	for start := 0; start < len(records); start += config.WriteChunkRows {
		end := min(start+config.WriteChunkRows, len(records))
		if err := s.writer.WriteRecords(ctx, records[start:end]); err != nil {
			bar.Fail(err)
			s.writer.Close()
			return err
		}
		bar.Update(int64(end))
	}

	if err := s.writer.Close(); err != nil {
		bar.Fail(err)
		return err
	}
	bar.Complete()
	return nil
}

// writeManifest writes the sidecar for the CSV table when enabled.
func writeManifest(cfg *config.Config, set *sinkSet, command, runID string, rows int, results []*simulator.Result) (string, error) {
	if !cfg.Output.Manifest {
		return "", nil
	}

	m := &sink.Manifest{
		RunID:     runID,
		Command:   command,
		Version:   Version,
		CreatedAt: time.Now().UTC(),
		Output:    set.csvPath,
		Outputs:   set.outputs,
		Rows:      rows,
		Config:    cfg,
	}
	for _, res := range results {
		m.Runs = append(m.Runs, sink.ManifestRun{
			Name:        res.Spec.Name(),
			Scenario:    res.Spec.Link.Name,
			CapacityBps: res.Spec.Link.CapacityBps,
			Encryption:  res.Spec.Encryption,
			Seed:        res.Seed,
			Rows:        len(res.Records),
			ElapsedMs:   res.Elapsed.Milliseconds(),
		})
	}

	path := sink.ManifestPath(set.csvPath)
	if err := sink.WriteManifest(path, m); err != nil {
		return "", err
	}
	return path, nil
}
