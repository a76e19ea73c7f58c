package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		Duration:   600,
		Step:       0.1,
		BaseLoad:   10,
		PeakLoad:   400,
		SpikeShape: SpikeGaussian,
		Seed:       42,
	}
}

func TestGenerateTimeGrid(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		step     float64
		count    int
		last     float64
	}{
		{"default grid includes duration", 600, 0.1, 6001, 600},
		{"whole seconds", 10, 1, 11, 10},
		{"step does not divide duration", 1, 0.3, 4, 0.9},
		{"single step", 0.5, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Duration = tt.duration
			cfg.Step = tt.step

			p, err := Generate(cfg)
			require.NoError(t, err)
			require.Len(t, p.Samples, tt.count)
			assert.Equal(t, 0.0, p.Samples[0].Time)
			assert.InDelta(t, tt.last, p.Samples[len(p.Samples)-1].Time, 1e-9)
		})
	}
}

func TestGeneratePlateau(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 100
	cfg.Step = 1

	p, err := Generate(cfg)
	require.NoError(t, err)

	// width = max(10, 20) = 20 around t=50, strict inequality: 41..59
	for _, s := range p.Samples {
		inside := math.Abs(s.Time-50) < 10
		if inside {
			assert.Equal(t, 400.0, s.Load, "t=%v should be on the plateau", s.Time)
		} else {
			assert.Equal(t, 10.0, s.Load, "t=%v should be at base load", s.Time)
		}
	}
	assert.Equal(t, 10.0, p.Samples[40].Load)
	assert.Equal(t, 400.0, p.Samples[41].Load)
	assert.Equal(t, 400.0, p.Samples[59].Load)
	assert.Equal(t, 10.0, p.Samples[60].Load)
}

func TestGeneratePlateauMinimumWidth(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 20
	cfg.Step = 1

	p, err := Generate(cfg)
	require.NoError(t, err)

	// 0.2*20 = 4 < 10, so width is 10 around t=10: 6..14
	var raised []float64
	for _, s := range p.Samples {
		if s.Load == 400 {
			raised = append(raised, s.Time)
		}
	}
	assert.Equal(t, []float64{6, 7, 8, 9, 10, 11, 12, 13, 14}, raised)
}

func TestGeneratePlateauKeepsHigherLoad(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 100
	cfg.Step = 1
	cfg.BaseLoad = 500
	cfg.PeakLoad = 400

	p, err := Generate(cfg)
	require.NoError(t, err)
	for _, s := range p.Samples {
		assert.Equal(t, 500.0, s.Load)
	}
}

func TestGenerateRectSpike(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 100
	cfg.Step = 1
	cfg.PeakLoad = 50
	cfg.SpikeTimes = []float64{10}
	cfg.SpikeDuration = 5
	cfg.SpikeShape = SpikeRect

	p, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, 10.0, p.Samples[9].Load)
	for i := 10; i < 15; i++ {
		assert.Equal(t, 60.0, p.Samples[i].Load, "t=%d", i)
	}
	assert.Equal(t, 10.0, p.Samples[15].Load, "spike end is exclusive")
}

func TestGenerateGaussianSpike(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 100
	cfg.Step = 1
	cfg.PeakLoad = 50
	cfg.SpikeTimes = []float64{20}
	cfg.SpikeDuration = 8

	p, err := Generate(cfg)
	require.NoError(t, err)

	// sigma = 2
	assert.InDelta(t, 60.0, p.Samples[20].Load, 1e-12)
	assert.InDelta(t, 10+50*math.Exp(-0.5), p.Samples[22].Load, 1e-12)
	assert.InDelta(t, 10+50*math.Exp(-0.5), p.Samples[18].Load, 1e-12)
	assert.InDelta(t, 10+50*math.Exp(-2), p.Samples[24].Load, 1e-12)
}

func TestGenerateSpikesOverlapPlateau(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 100
	cfg.Step = 1
	cfg.PeakLoad = 100
	cfg.SpikeTimes = []float64{50, 50}
	cfg.SpikeDuration = 2
	cfg.SpikeShape = SpikeRect

	p, err := Generate(cfg)
	require.NoError(t, err)

	// plateau raises to 100, two overlapping spikes add 100 each
	assert.Equal(t, 300.0, p.Samples[50].Load)
	assert.Equal(t, 300.0, p.Samples[51].Load)
	assert.Equal(t, 100.0, p.Samples[52].Load)
}

func TestGenerateDeterministicWithoutNoise(t *testing.T) {
	cfg := baseConfig()
	cfg.NoiseLevel = 0

	p1, err := Generate(cfg)
	require.NoError(t, err)
	p2, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, p1.Samples, p2.Samples)
	assert.Equal(t, int64(42), p1.Seed)
}

func TestGenerateNoise(t *testing.T) {
	cfg := baseConfig()
	cfg.NoiseLevel = 0.5
	cfg.PeakLoad = 0

	t.Run("same seed reproduces", func(t *testing.T) {
		p1, err := Generate(cfg)
		require.NoError(t, err)
		p2, err := Generate(cfg)
		require.NoError(t, err)
		assert.Equal(t, p1.Samples, p2.Samples)
	})

	t.Run("different seed differs", func(t *testing.T) {
		other := cfg
		other.Seed = 43

		p1, err := Generate(cfg)
		require.NoError(t, err)
		p2, err := Generate(other)
		require.NoError(t, err)
		assert.NotEqual(t, p1.Loads(), p2.Loads())
	})

	t.Run("clamped at zero", func(t *testing.T) {
		// sd = 5 * base, so many draws would go negative without clamping
		heavy := cfg
		heavy.NoiseLevel = 5

		p, err := Generate(heavy)
		require.NoError(t, err)
		zeros := 0
		for _, s := range p.Samples {
			require.GreaterOrEqual(t, s.Load, 0.0)
			if s.Load == 0 {
				zeros++
			}
		}
		assert.Positive(t, zeros)
	})

	t.Run("random seed is reported", func(t *testing.T) {
		random := cfg
		random.Seed = 0

		p1, err := Generate(random)
		require.NoError(t, err)
		require.NotZero(t, p1.Seed)

		replay := cfg
		replay.Seed = p1.Seed
		p2, err := Generate(replay)
		require.NoError(t, err)
		assert.Equal(t, p1.Samples, p2.Samples)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"zero duration", func(c *Config) { c.Duration = 0 }, "duration"},
		{"negative dt", func(c *Config) { c.Step = -0.1 }, "dt"},
		{"too many samples", func(c *Config) {
			c.Duration = 1e9
			c.Step = 1e-3
		}, "more than 50000000 samples"},
		{"unbounded sample count", func(c *Config) {
			c.Duration = math.MaxFloat64
			c.Step = 1e-300
		}, "dt is too small"},
		{"negative base", func(c *Config) { c.BaseLoad = -1 }, "base load"},
		{"negative peak", func(c *Config) { c.PeakLoad = -1 }, "peak load"},
		{"negative noise", func(c *Config) { c.NoiseLevel = -0.1 }, "noise"},
		{"nan noise", func(c *Config) { c.NoiseLevel = math.NaN() }, "noise"},
		{"spike without duration", func(c *Config) {
			c.SpikeTimes = []float64{10}
			c.SpikeDuration = 0
		}, "spike duration"},
		{"bad shape", func(c *Config) {
			c.SpikeTimes = []float64{10}
			c.SpikeDuration = 4
			c.SpikeShape = "triangle"
		}, "triangle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.modify(&cfg)

			_, err := Generate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseSpikeShape(t *testing.T) {
	shape, err := ParseSpikeShape(" Rect ")
	require.NoError(t, err)
	assert.Equal(t, SpikeRect, shape)

	_, err = ParseSpikeShape("square")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
