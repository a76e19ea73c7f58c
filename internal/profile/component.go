package profile

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Component modifies a load profile in place. times and load have the same
// length; components are applied in a fixed order by Generate.
type Component interface {
	Apply(times, load []float64)
}

// Plateau raises every sample inside a centred window to at least Level.
// It models a scheduled backup window.
type Plateau struct {
	Center float64
	Width  float64
	Level  float64
}

// Minimum plateau width in seconds, and its share of the run otherwise
const (
	MinPlateauWidth      = 10.0
	PlateauDurationShare = 0.2
)

// NewPlateau returns the plateau for a run of the given duration: centred on
// the midpoint, max(10s, 20% of the run) wide.
func NewPlateau(duration, level float64) Plateau {
	return Plateau{
		Center: duration / 2,
		Width:  math.Max(MinPlateauWidth, PlateauDurationShare*duration),
		Level:  level,
	}
}

// Apply implements Component
func (p Plateau) Apply(times, load []float64) {
	half := p.Width / 2
	for i, t := range times {
		if math.Abs(t-p.Center) < half {
			load[i] = math.Max(load[i], p.Level)
		}
	}
}

// Spike adds Height on top of the profile starting at Start. Spikes are
// additive and may overlap the plateau and each other.
type Spike struct {
	Start    float64
	Duration float64
	Height   float64
	Shape    SpikeShape
}

// Apply implements Component
func (s Spike) Apply(times, load []float64) {
	switch s.Shape {
	case SpikeRect:
		end := s.Start + s.Duration
		for i, t := range times {
			if t >= s.Start && t < end {
				load[i] += s.Height
			}
		}
	default:
		// Gaussian: sigma is a quarter of the spike duration
		sigma := s.Duration / 4
		for i, t := range times {
			z := (t - s.Start) / sigma
			load[i] += s.Height * math.Exp(-0.5*z*z)
		}
	}
}

// Noise adds independent zero-mean Gaussian noise to every sample, then
// clamps the profile at zero.
type Noise struct {
	StdDev float64
	Src    rand.Source
}

// Apply implements Component
func (n Noise) Apply(_, load []float64) {
	if n.StdDev <= 0 {
		return
	}
	dist := distuv.Normal{Mu: 0, Sigma: n.StdDev, Src: n.Src}
	for i := range load {
		load[i] = math.Max(load[i]+dist.Rand(), 0)
	}
}
