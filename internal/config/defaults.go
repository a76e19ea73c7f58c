// Package config contains defaults, loading and validation for the SAN
// simulator. Defaults live here as constants; files, environment and flags
// layer on top of them.
package config

import (
	"time"

	"github.com/willfong/san-simulator/internal/profile"
)

// =============================================================================
// LINK MODEL DEFAULTS
// =============================================================================

const (
	// Scenario is the link evaluated by a single simulate run
	Scenario = "ethernet"

	// PacketBytes is the payload size of one packet
	PacketBytes = 1500

	// PacketOverhead is the per-packet protocol overhead (0.02 = 2% extra bytes)
	PacketOverhead = 0.02

	// EncMsPerMB is the encryption cost in milliseconds per MB of wire data
	EncMsPerMB = 0.12
)

// =============================================================================
// LOAD PROFILE DEFAULTS
// =============================================================================

// Timeline
const (
	// Duration is the simulated time span in seconds
	Duration = 600.0

	// Step is the sampling interval in seconds
	Step = 0.1

	// MaxSamples bounds the number of samples in one run
	MaxSamples = profile.MaxSamples
)

// Load shape
const (
	// BaseMBps is the background load in MB/s
	BaseMBps = 10.0

	// PeakMBps is the plateau level and spike height in MB/s
	PeakMBps = 400.0

	// SpikeDuration is the nominal width of one spike in seconds
	SpikeDuration = 8.0

	// SpikeShape is the spike profile (gaussian or rect)
	SpikeShape = "gaussian"

	// Noise is the noise std dev as a fraction of base load
	Noise = 0.02
)

// =============================================================================
// OUTPUT DEFAULTS
// =============================================================================

const (
	// OutputPath is where the results table is written
	OutputPath = "sim_results.csv"

	// XZPreset is the compression level used with --compress (0-9)
	XZPreset = 6

	// WriteChunkRows is how many records are handed to the sinks at once;
	// progress is reported per chunk
	WriteChunkRows = 10_000
)

// =============================================================================
// COMPARE DEFAULTS
// =============================================================================

var (
	// CompareScenarios are the links evaluated by compare
	CompareScenarios = []string{"ethernet", "fc"}

	// BackupSizesTB are the dataset sizes used for backup window estimates
	BackupSizesTB = []float64{1, 5, 10}
)

// =============================================================================
// DATABASE DEFAULTS
// =============================================================================

const (
	// DBDriver is the database driver to use
	DBDriver = "mysql"

	// DBTable is the table results are inserted into
	DBTable = "san_results"

	// DBBatchSize is the number of rows per INSERT statement
	DBBatchSize = 500

	// DBMaxBatchSize keeps one INSERT under MySQL's 65535 placeholder limit
	// at 22 placeholders per row (run_id plus the results columns)
	DBMaxBatchSize = 2978

	// DBMaxOpenConns is maximum open connections in the pool
	DBMaxOpenConns = 4

	// DBMaxIdleConns is maximum idle connections in the pool
	DBMaxIdleConns = 2

	// DBConnMaxLifetime is how long a connection can be reused
	DBConnMaxLifetime = 5 * time.Minute

	// DBConnMaxIdleTime is how long an idle connection is kept
	DBConnMaxIdleTime = 1 * time.Minute
)

// =============================================================================
// GREPTIMEDB DEFAULTS
// =============================================================================

const (
	// GreptimePort is the gRPC port of the GreptimeDB frontend
	GreptimePort = 4001

	// GreptimeDatabase is the target database
	GreptimeDatabase = "public"

	// GreptimeTable is the table results are written to
	GreptimeTable = "san_results"

	// GreptimeBatchSize is the number of rows per write request
	GreptimeBatchSize = 1000
)
