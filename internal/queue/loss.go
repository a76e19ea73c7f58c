package queue

// SaturationLoss is the loss ratio reported whenever arrivals meet or exceed
// the service rate. It is a fixed approximation of severe saturation, not
// derived from queueing theory and not a measured quantity.
const SaturationLoss = 0.9

// MaxLoss caps the loss ratio so delivered throughput never reaches zero.
const MaxLoss = 0.999

// LossRatio returns the fraction of offered packets that are dropped.
//
// No arrivals means no loss. Saturation (lambda >= mu) returns
// SaturationLoss. Otherwise the excess-arrival ratio is clamped to
// [0, MaxLoss]; in the stable regime that ratio is negative and floors at 0.
func LossRatio(lambda, mu float64) float64 {
	switch {
	case lambda <= 0:
		return 0
	case lambda >= mu:
		return SaturationLoss
	}
	return clamp((lambda-mu)/lambda, 0, MaxLoss)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
