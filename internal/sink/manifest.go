package sink

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/willfong/san-simulator/internal/config"
	"gopkg.in/yaml.v3"
)

// ManifestSuffix is appended to the results path to name the manifest.
const ManifestSuffix = ".manifest.yaml"

// Manifest describes one invocation: what ran, with which seeds and
// settings, and where the results went.
type Manifest struct {
	RunID     string         `yaml:"run_id"`
	Command   string         `yaml:"command"`
	Version   string         `yaml:"version,omitempty"`
	CreatedAt time.Time      `yaml:"created_at"`
	Output    string         `yaml:"output"`
	Outputs   []string       `yaml:"outputs,omitempty"`
	Rows      int            `yaml:"rows"`
	Runs      []ManifestRun  `yaml:"runs"`
	Config    *config.Config `yaml:"config,omitempty"`
}

// ManifestRun describes one link/encryption evaluation.
type ManifestRun struct {
	Name        string  `yaml:"name"`
	Scenario    string  `yaml:"scenario"`
	CapacityBps float64 `yaml:"capacity_bps"`
	Encryption  bool    `yaml:"encryption"`
	Seed        int64   `yaml:"seed"`
	Rows        int     `yaml:"rows"`
	ElapsedMs   int64   `yaml:"elapsed_ms"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ManifestPath returns the manifest location for a results file.
func ManifestPath(output string) string {
	return strings.TrimSuffix(output, ".xz") + ManifestSuffix
}

// WriteManifest writes m as YAML to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return nil, fmt.Errorf("manifest %s: invalid run_id: %w", path, err)
	}
	return &m, nil
}
