// Package profile generates time-indexed offered-load profiles: a baseline,
// a scheduled high-load plateau in the middle of the run, optional spikes
// and optional Gaussian noise.
package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxSamples bounds the number of samples in one profile.
const MaxSamples = 50_000_000

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("invalid load profile config")

// SpikeShape identifies how a spike is added to the profile
type SpikeShape string

const (
	// SpikeGaussian adds a bell curve centred on the spike time
	SpikeGaussian SpikeShape = "gaussian"

	// SpikeRect adds a flat block over [start, start+duration)
	SpikeRect SpikeShape = "rect"
)

// ParseSpikeShape resolves a shape name (case-insensitive).
func ParseSpikeShape(s string) (SpikeShape, error) {
	switch SpikeShape(strings.ToLower(strings.TrimSpace(s))) {
	case SpikeGaussian:
		return SpikeGaussian, nil
	case SpikeRect:
		return SpikeRect, nil
	}
	return "", fmt.Errorf("%w: spike shape %q must be %q or %q", ErrInvalidConfig, s, SpikeGaussian, SpikeRect)
}

// Config describes one load profile. All loads are in MB/s, all times in
// seconds.
type Config struct {
	Duration float64
	Step     float64

	BaseLoad float64
	PeakLoad float64

	// Spike start times; empty means no spikes
	SpikeTimes    []float64
	SpikeDuration float64
	SpikeShape    SpikeShape

	// Noise standard deviation as a fraction of BaseLoad; 0 disables noise
	NoiseLevel float64

	// Seed for the noise stream (0 = random)
	Seed int64
}

// Validate checks the config before any sample is produced.
func (c Config) Validate() error {
	var errs []string

	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		errs = append(errs, "duration must be positive and finite")
	}
	if !(c.Step > 0) || math.IsInf(c.Step, 0) {
		errs = append(errs, "dt must be positive and finite")
	}
	if c.Duration > 0 && c.Step > 0 && !(c.Duration/c.Step < MaxSamples) {
		errs = append(errs, fmt.Sprintf("dt is too small: more than %d samples", MaxSamples))
	}
	if !(c.BaseLoad >= 0) {
		errs = append(errs, "base load must be non-negative")
	}
	if !(c.PeakLoad >= 0) {
		errs = append(errs, "peak load must be non-negative")
	}
	if !(c.NoiseLevel >= 0) {
		errs = append(errs, "noise level must be non-negative")
	}
	if len(c.SpikeTimes) > 0 {
		if !(c.SpikeDuration > 0) {
			errs = append(errs, "spike duration must be positive when spikes are declared")
		}
		if c.SpikeShape != SpikeGaussian && c.SpikeShape != SpikeRect {
			errs = append(errs, fmt.Sprintf("spike shape %q must be %q or %q", c.SpikeShape, SpikeGaussian, SpikeRect))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// SampleCount returns the number of samples covering [0, Duration] at Step
// spacing. A small tolerance keeps Duration itself on the grid when it is a
// multiple of Step despite floating point division.
func (c Config) SampleCount() int {
	return int(math.Floor(c.Duration/c.Step+1e-9)) + 1
}

// Sample is one point of the profile
type Sample struct {
	Time float64 // seconds since start
	Load float64 // offered load, MB/s
}

// Profile is a generated load profile
type Profile struct {
	Samples []Sample

	// Seed actually used for the noise stream; pass it back in Config.Seed
	// to reproduce this profile
	Seed int64
}

// Loads returns the offered-load values in time order.
func (p *Profile) Loads() []float64 {
	loads := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		loads[i] = s.Load
	}
	return loads
}
