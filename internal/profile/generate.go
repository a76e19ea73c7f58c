package profile

import (
	"github.com/willfong/san-simulator/internal/utils"
)

// Generate produces the offered-load profile described by cfg.
//
// Every sample starts at BaseLoad. The plateau is applied first, then each
// spike in declaration order, then noise (only when NoiseLevel > 0). With
// NoiseLevel = 0 the result does not depend on the seed at all.
func Generate(cfg Config) (*Profile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.SampleCount()
	times := make([]float64, n)
	load := make([]float64, n)
	for i := range times {
		// i*dt rather than a running sum, so late samples do not drift
		times[i] = float64(i) * cfg.Step
		load[i] = cfg.BaseLoad
	}

	rng := utils.NewRandom(cfg.Seed)
	for _, c := range components(cfg, rng) {
		c.Apply(times, load)
	}

	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = Sample{Time: times[i], Load: load[i]}
	}

	return &Profile{
		Samples: samples,
		Seed:    rng.SeedInt64(),
	}, nil
}

// components lists the profile components for cfg in application order.
func components(cfg Config, rng *utils.Random) []Component {
	comps := []Component{NewPlateau(cfg.Duration, cfg.PeakLoad)}

	for _, start := range cfg.SpikeTimes {
		comps = append(comps, Spike{
			Start:    start,
			Duration: cfg.SpikeDuration,
			Height:   cfg.PeakLoad,
			Shape:    cfg.SpikeShape,
		})
	}

	if cfg.NoiseLevel > 0 {
		comps = append(comps, Noise{
			StdDev: cfg.NoiseLevel * cfg.BaseLoad,
			Src:    rng.Source(),
		})
	}

	return comps
}
