package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/willfong/san-simulator/internal/models"
)

// EnvPrefix is prepended to environment overrides (SANSIM_RUN_DURATION etc).
const EnvPrefix = "SANSIM"

// Config holds all configuration for the simulator
type Config struct {
	// Single-link run settings
	Run RunConfig `mapstructure:"run" yaml:"run"`

	// Offered load profile
	Load LoadConfig `mapstructure:"load" yaml:"load"`

	// Multi-link comparison
	Compare CompareConfig `mapstructure:"compare" yaml:"compare"`

	// Results table and sidecar files
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Optional result sinks
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Greptime GreptimeConfig `mapstructure:"greptime" yaml:"greptime"`

	// Extra or overridden links, name to capacity in bits/s
	Links map[string]float64 `mapstructure:"links" yaml:"links,omitempty"`

	// Logging
	Verbose bool `mapstructure:"verbose" yaml:"-"`
}

// RunConfig holds the link and packet model of one run
type RunConfig struct {
	Scenario     string  `mapstructure:"scenario" yaml:"scenario"`
	Encryption   bool    `mapstructure:"encryption" yaml:"encryption"`
	EncMsPerMB   float64 `mapstructure:"enc_ms_per_mb" yaml:"enc_ms_per_mb"`
	Duration     float64 `mapstructure:"duration" yaml:"duration"`
	Step         float64 `mapstructure:"dt" yaml:"dt"`
	PacketBytes  int     `mapstructure:"packet_bytes" yaml:"packet_bytes"`
	OverheadFrac float64 `mapstructure:"pkt_overhead" yaml:"pkt_overhead"`
}

// LoadConfig holds the load profile shape
type LoadConfig struct {
	BaseMBps      float64   `mapstructure:"base_mb_s" yaml:"base_mb_s"`
	PeakMBps      float64   `mapstructure:"peak_mb_s" yaml:"peak_mb_s"`
	SpikeTimes    []float64 `mapstructure:"spike_times" yaml:"spike_times"`
	SpikeDuration float64   `mapstructure:"spike_duration" yaml:"spike_duration"`
	SpikeShape    string    `mapstructure:"spike_shape" yaml:"spike_shape"`
	Noise         float64   `mapstructure:"noise" yaml:"noise"`

	// Random seed for reproducibility (0 = random)
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// CompareConfig holds settings for the compare command
type CompareConfig struct {
	Scenarios     []string  `mapstructure:"scenarios" yaml:"scenarios"`
	Workers       int       `mapstructure:"workers" yaml:"workers"` // 0 = one per CPU
	BackupSizesTB []float64 `mapstructure:"backup_sizes_tb" yaml:"backup_sizes_tb"`
}

// OutputConfig holds output file settings
type OutputConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	Compress bool   `mapstructure:"compress" yaml:"compress"`
	XZPreset int    `mapstructure:"xz_preset" yaml:"xz_preset"`

	// Optional JSON Lines copy of the results
	JSONLPath string `mapstructure:"jsonl" yaml:"jsonl,omitempty"`

	// Write <path>.manifest.yaml next to the results
	Manifest bool `mapstructure:"manifest" yaml:"manifest"`

	// Directory for compare report tables (empty = next to path)
	ReportDir string `mapstructure:"report_dir" yaml:"report_dir,omitempty"`
}

// DatabaseConfig holds MySQL/MariaDB connection settings
type DatabaseConfig struct {
	// Connection string (DSN), empty disables the sink
	// Format: user:password@tcp(host:port)/database
	DSN string `mapstructure:"dsn" yaml:"-"`

	Driver    string `mapstructure:"driver" yaml:"driver"`
	Table     string `mapstructure:"table" yaml:"table"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

// Enabled reports whether results should be inserted into a database
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != ""
}

// GreptimeConfig holds GreptimeDB connection settings
type GreptimeConfig struct {
	// Host of the gRPC frontend, empty disables the sink
	Host      string `mapstructure:"host" yaml:"host,omitempty"`
	Port      int    `mapstructure:"port" yaml:"port"`
	Database  string `mapstructure:"database" yaml:"database"`
	Table     string `mapstructure:"table" yaml:"table"`
	Username  string `mapstructure:"username" yaml:"-"`
	Password  string `mapstructure:"password" yaml:"-"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
}

// Enabled reports whether results should be written to GreptimeDB
func (g GreptimeConfig) Enabled() bool {
	return g.Host != ""
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Scenario:     Scenario,
			EncMsPerMB:   EncMsPerMB,
			Duration:     Duration,
			Step:         Step,
			PacketBytes:  PacketBytes,
			OverheadFrac: PacketOverhead,
		},
		Load: LoadConfig{
			BaseMBps:      BaseMBps,
			PeakMBps:      PeakMBps,
			SpikeDuration: SpikeDuration,
			SpikeShape:    SpikeShape,
			Noise:         Noise,
		},
		Compare: CompareConfig{
			Scenarios:     append([]string(nil), CompareScenarios...),
			BackupSizesTB: append([]float64(nil), BackupSizesTB...),
		},
		Output: OutputConfig{
			Path:     OutputPath,
			XZPreset: XZPreset,
			Manifest: true,
		},
		Database: DatabaseConfig{
			Driver:          DBDriver,
			Table:           DBTable,
			BatchSize:       DBBatchSize,
			MaxOpenConns:    DBMaxOpenConns,
			MaxIdleConns:    DBMaxIdleConns,
			ConnMaxLifetime: DBConnMaxLifetime,
			ConnMaxIdleTime: DBConnMaxIdleTime,
		},
		Greptime: GreptimeConfig{
			Port:      GreptimePort,
			Database:  GreptimeDatabase,
			Table:     GreptimeTable,
			BatchSize: GreptimeBatchSize,
		},
	}
}

// NewViper returns a viper instance with every key defaulted and environment
// overrides enabled. Keys must be known to viper for AutomaticEnv to see them
// during Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("run.scenario", d.Run.Scenario)
	v.SetDefault("run.encryption", d.Run.Encryption)
	v.SetDefault("run.enc_ms_per_mb", d.Run.EncMsPerMB)
	v.SetDefault("run.duration", d.Run.Duration)
	v.SetDefault("run.dt", d.Run.Step)
	v.SetDefault("run.packet_bytes", d.Run.PacketBytes)
	v.SetDefault("run.pkt_overhead", d.Run.OverheadFrac)

	v.SetDefault("load.base_mb_s", d.Load.BaseMBps)
	v.SetDefault("load.peak_mb_s", d.Load.PeakMBps)
	v.SetDefault("load.spike_times", d.Load.SpikeTimes)
	v.SetDefault("load.spike_duration", d.Load.SpikeDuration)
	v.SetDefault("load.spike_shape", d.Load.SpikeShape)
	v.SetDefault("load.noise", d.Load.Noise)
	v.SetDefault("load.seed", d.Load.Seed)

	v.SetDefault("compare.scenarios", d.Compare.Scenarios)
	v.SetDefault("compare.workers", d.Compare.Workers)
	v.SetDefault("compare.backup_sizes_tb", d.Compare.BackupSizesTB)

	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.compress", d.Output.Compress)
	v.SetDefault("output.xz_preset", d.Output.XZPreset)
	v.SetDefault("output.jsonl", d.Output.JSONLPath)
	v.SetDefault("output.manifest", d.Output.Manifest)
	v.SetDefault("output.report_dir", d.Output.ReportDir)

	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.table", d.Database.Table)
	v.SetDefault("database.batch_size", d.Database.BatchSize)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", d.Database.ConnMaxIdleTime)

	v.SetDefault("greptime.host", d.Greptime.Host)
	v.SetDefault("greptime.port", d.Greptime.Port)
	v.SetDefault("greptime.database", d.Greptime.Database)
	v.SetDefault("greptime.table", d.Greptime.Table)
	v.SetDefault("greptime.username", d.Greptime.Username)
	v.SetDefault("greptime.password", d.Greptime.Password)
	v.SetDefault("greptime.batch_size", d.Greptime.BatchSize)

	v.SetDefault("verbose", d.Verbose)
	return v
}

// ReadFile validates a YAML config file against the embedded schema and
// merges it into v.
func ReadFile(v *viper.Viper, path string) error {
	if err := ValidateFile(path); err != nil {
		return err
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from v into a Config struct
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Catalog returns the built-in links merged with the configured extras
func (c *Config) Catalog() *models.LinkCatalog {
	return models.NewLinkCatalog(c.Links)
}

// RunLink resolves run.scenario
func (c *Config) RunLink() (models.Link, error) {
	return c.Catalog().Lookup(c.Run.Scenario)
}

// CompareLinks resolves compare.scenarios in order
func (c *Config) CompareLinks() ([]models.Link, error) {
	catalog := c.Catalog()
	links := make([]models.Link, 0, len(c.Compare.Scenarios))
	for _, name := range c.Compare.Scenarios {
		link, err := catalog.Lookup(name)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []string

	catalog := c.Catalog()

	// Validate run config
	if _, err := catalog.Lookup(c.Run.Scenario); err != nil {
		errs = append(errs, "run.scenario: "+err.Error())
	}
	if !positive(c.Run.Duration) {
		errs = append(errs, "run.duration must be positive")
	}
	if !positive(c.Run.Step) {
		errs = append(errs, "run.dt must be positive")
	}
	if positive(c.Run.Duration) && positive(c.Run.Step) && c.Run.Duration/c.Run.Step >= MaxSamples {
		errs = append(errs, fmt.Sprintf("run.dt is too small: more than %d samples", MaxSamples))
	}
	if c.Run.PacketBytes <= 0 {
		errs = append(errs, "run.packet_bytes must be positive")
	}
	if !nonNegative(c.Run.OverheadFrac) {
		errs = append(errs, "run.pkt_overhead must be non-negative")
	}
	if !nonNegative(c.Run.EncMsPerMB) {
		errs = append(errs, "run.enc_ms_per_mb must be non-negative")
	}

	// Validate load profile
	if !nonNegative(c.Load.BaseMBps) {
		errs = append(errs, "load.base_mb_s must be non-negative")
	}
	if !nonNegative(c.Load.PeakMBps) {
		errs = append(errs, "load.peak_mb_s must be non-negative")
	}
	if !nonNegative(c.Load.Noise) {
		errs = append(errs, "load.noise must be non-negative")
	}
	if len(c.Load.SpikeTimes) > 0 && !positive(c.Load.SpikeDuration) {
		errs = append(errs, "load.spike_duration must be positive when spikes are set")
	}
	for _, s := range c.Load.SpikeTimes {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			errs = append(errs, "load.spike_times must be finite")
			break
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Load.SpikeShape)) {
	case "gaussian", "rect":
	default:
		errs = append(errs, fmt.Sprintf("load.spike_shape must be gaussian or rect (got %q)", c.Load.SpikeShape))
	}

	// Validate compare config
	if len(c.Compare.Scenarios) == 0 {
		errs = append(errs, "compare.scenarios must not be empty")
	}
	for _, name := range c.Compare.Scenarios {
		if _, err := catalog.Lookup(name); err != nil {
			errs = append(errs, "compare.scenarios: "+err.Error())
		}
	}
	if c.Compare.Workers < 0 {
		errs = append(errs, "compare.workers must be >= 0")
	}
	for _, tb := range c.Compare.BackupSizesTB {
		if !positive(tb) {
			errs = append(errs, "compare.backup_sizes_tb must be positive")
			break
		}
	}

	// Validate output
	if strings.TrimSpace(c.Output.Path) == "" {
		errs = append(errs, "output.path must not be empty")
	}
	if c.Output.XZPreset < 0 || c.Output.XZPreset > 9 {
		errs = append(errs, "output.xz_preset must be 0-9")
	}

	// Validate extra links
	for name, bps := range c.Links {
		if !positive(bps) {
			errs = append(errs, fmt.Sprintf("links.%s must be a positive capacity in bits/s", name))
		}
	}

	// Validate database pool settings
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, "database.max_open_conns must be >= 1")
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, "database.max_idle_conns must be >= 0")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "database.max_idle_conns should not exceed max_open_conns")
	}
	if c.Database.BatchSize < 1 || c.Database.BatchSize > DBMaxBatchSize {
		errs = append(errs, fmt.Sprintf("database.batch_size must be 1-%d", DBMaxBatchSize))
	}
	if c.Database.Enabled() && c.Database.Table == "" {
		errs = append(errs, "database.table must not be empty")
	}

	// Validate GreptimeDB settings
	if c.Greptime.Enabled() {
		if c.Greptime.Port < 1 || c.Greptime.Port > 65535 {
			errs = append(errs, "greptime.port must be 1-65535")
		}
		if c.Greptime.Table == "" {
			errs = append(errs, "greptime.table must not be empty")
		}
		if c.Greptime.BatchSize < 1 {
			errs = append(errs, "greptime.batch_size must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", joinErrors(errs))
	}

	return nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}

func nonNegative(f float64) bool {
	return f >= 0 && !math.IsInf(f, 1)
}

// joinErrors joins error messages with newline and bullet points
func joinErrors(errs []string) string {
	result := errs[0]
	for i := 1; i < len(errs); i++ {
		result += "\n  - " + errs[i]
	}
	return result
}
