package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/willfong/san-simulator/internal/config"
	"github.com/willfong/san-simulator/internal/models"
	"github.com/willfong/san-simulator/internal/profile"
	"github.com/willfong/san-simulator/internal/simulator"
	"github.com/willfong/san-simulator/internal/sink"
	"github.com/willfong/san-simulator/internal/ui"
)

func newTestCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	f := c.Flags()
	f.String("scenario", config.Scenario, "")
	f.Bool("encryption", false, "")
	addProfileFlags(f)
	addSinkFlags(f)
	return c
}

func TestLoadConfigFlags(t *testing.T) {
	c := newTestCommand()
	for name, value := range map[string]string{
		"scenario":    "fc",
		"encryption":  "true",
		"duration":    "30",
		"dt":          "0.5",
		"spike-times": "5,12.5",
		"spike-shape": "rect",
		"seed":        "42",
		"out":         "out/results.csv",
	} {
		if err := c.Flags().Set(name, value); err != nil {
			t.Fatalf("Set --%s failed: %v", name, err)
		}
	}

	cfg, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Run.Scenario != "fc" || !cfg.Run.Encryption {
		t.Errorf("Expected fc with encryption, got %s/%v", cfg.Run.Scenario, cfg.Run.Encryption)
	}
	if cfg.Run.Duration != 30 || cfg.Run.Step != 0.5 {
		t.Errorf("Expected duration 30 dt 0.5, got %v/%v", cfg.Run.Duration, cfg.Run.Step)
	}
	if len(cfg.Load.SpikeTimes) != 2 || cfg.Load.SpikeTimes[1] != 12.5 {
		t.Errorf("Expected spike times [5 12.5], got %v", cfg.Load.SpikeTimes)
	}
	if cfg.Load.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", cfg.Load.Seed)
	}
	if cfg.Output.Path != "out/results.csv" {
		t.Errorf("Expected output path from flag, got %s", cfg.Output.Path)
	}

	// Unset flags fall back to defaults, not to zero values
	if cfg.Load.PeakMBps != config.PeakMBps {
		t.Errorf("Expected default peak %v, got %v", config.PeakMBps, cfg.Load.PeakMBps)
	}
	if cfg.Database.Table != config.DBTable {
		t.Errorf("Expected default table %s, got %s", config.DBTable, cfg.Database.Table)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	c := newTestCommand()
	c.Flags().Set("scenario", "token-ring")
	c.Flags().Set("dt", "0")

	_, err := loadConfig(c)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"run.scenario", "run.dt must be positive"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q in error, got: %v", want, err)
		}
	}
}

func TestBuildRunSpec(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Run.Encryption = true
	cfg.Load.SpikeTimes = []float64{100}
	cfg.Load.SpikeShape = "RECT"

	spec, err := buildRunSpec(cfg, models.Link{Name: "fc", CapacityBps: 16e9})
	if err != nil {
		t.Fatalf("buildRunSpec failed: %v", err)
	}

	if spec.Name() != "fc+enc" {
		t.Errorf("Expected name fc+enc, got %s", spec.Name())
	}
	if spec.Profile.SpikeShape != profile.SpikeRect {
		t.Errorf("Expected rect spikes, got %s", spec.Profile.SpikeShape)
	}
	if spec.PacketBytes != float64(config.PacketBytes) {
		t.Errorf("Expected packet bytes %d, got %v", config.PacketBytes, spec.PacketBytes)
	}

	// RunSpec must not share the config's slice
	cfg.Load.SpikeTimes[0] = 1
	if spec.Profile.SpikeTimes[0] != 100 {
		t.Error("Expected spike times to be copied")
	}
}

func TestSinksAndManifest(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Run.Duration = 10
	cfg.Run.Step = 1
	cfg.Load.Seed = 7
	cfg.Output.Path = filepath.Join(dir, "results.csv")
	cfg.Output.JSONLPath = filepath.Join(dir, "results.jsonl")

	link, err := cfg.RunLink()
	if err != nil {
		t.Fatalf("RunLink failed: %v", err)
	}
	spec, err := buildRunSpec(cfg, link)
	if err != nil {
		t.Fatalf("buildRunSpec failed: %v", err)
	}
	res, err := simulator.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var out bytes.Buffer
	u := ui.NewWithWriter(&out)
	runID := sink.NewRunID()

	sinks, err := openSinks(context.Background(), u, cfg, runID, time.Now(), true)
	if err != nil {
		t.Fatalf("openSinks failed: %v", err)
	}
	if sinks.writer.Len() != 2 {
		t.Errorf("Expected CSV and JSONL writers, got %d", sinks.writer.Len())
	}
	if err := sinks.writeAll(context.Background(), u, res.Records); err != nil {
		t.Fatalf("writeAll failed: %v", err)
	}
	if !strings.Contains(out.String(), "Writing results: 11/11 rows written") {
		t.Errorf("Expected progress completion line, got %q", out.String())
	}

	back, err := sink.ReadCSV(cfg.Output.Path)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(back) != len(res.Records) {
		t.Errorf("Expected %d rows back, got %d", len(res.Records), len(back))
	}
	if _, err := os.Stat(cfg.Output.JSONLPath); err != nil {
		t.Errorf("Expected JSONL output: %v", err)
	}

	path, err := writeManifest(cfg, sinks, "simulate", runID, len(res.Records), []*simulator.Result{res})
	if err != nil {
		t.Fatalf("writeManifest failed: %v", err)
	}
	m, err := sink.ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.RunID != runID || m.Rows != 11 || len(m.Runs) != 1 {
		t.Errorf("Unexpected manifest: %+v", m)
	}
	if m.Runs[0].Seed != 7 || m.Runs[0].Name != "ethernet" {
		t.Errorf("Unexpected manifest run: %+v", m.Runs[0])
	}
	if len(m.Outputs) != 2 {
		t.Errorf("Expected 2 outputs, got %v", m.Outputs)
	}
}

func TestSimulateHelpDescribesPlateau(t *testing.T) {
	if profile.MinPlateauWidth != 10 || profile.PlateauDurationShare != 0.2 {
		t.Fatalf("Plateau constants changed to %vs/%v; update the simulate help", profile.MinPlateauWidth, profile.PlateauDurationShare)
	}
	if !strings.Contains(simulateCmd.Long, "window of max(10s, 20% of the run)") {
		t.Errorf("Expected simulate help to describe the plateau window, got:\n%s", simulateCmd.Long)
	}
}

func TestWriteManifestDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Manifest = false

	path, err := writeManifest(cfg, &sinkSet{csvPath: filepath.Join(t.TempDir(), "x.csv")}, "simulate", sink.NewRunID(), 0, nil)
	if err != nil || path != "" {
		t.Errorf("Expected no manifest, got %q, %v", path, err)
	}
}
