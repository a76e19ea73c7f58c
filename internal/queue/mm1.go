package queue

import "math"

// MM1 holds the closed-form M/M/1 results for one arrival/service pair.
type MM1 struct {
	Utilization  float64 // rho = lambda/mu
	TimeInSystem float64 // W, seconds
	QueueDelay   float64 // Wq, seconds
	ServiceTime  float64 // S = 1/mu, seconds
}

// Stable reports whether the queue has a steady state.
func (m MM1) Stable() bool {
	return !math.IsInf(m.TimeInSystem, 1) && !math.IsNaN(m.Utilization)
}

// SolveMM1 evaluates the M/M/1 formulas.
//
//	mu <= 0      -> rho NaN, W = Wq = S = +Inf
//	lambda >= mu -> W = Wq = +Inf, S = 1/mu
//	otherwise    -> W = 1/(mu-lambda), Wq = W - S
func SolveMM1(lambda, mu float64) MM1 {
	if !(mu > 0) {
		inf := math.Inf(1)
		return MM1{
			Utilization:  math.NaN(),
			TimeInSystem: inf,
			QueueDelay:   inf,
			ServiceTime:  inf,
		}
	}

	rho := lambda / mu
	s := 1 / mu
	if lambda >= mu {
		return MM1{
			Utilization:  rho,
			TimeInSystem: math.Inf(1),
			QueueDelay:   math.Inf(1),
			ServiceTime:  s,
		}
	}

	w := 1 / (mu - lambda)
	return MM1{
		Utilization:  rho,
		TimeInSystem: w,
		QueueDelay:   w - s,
		ServiceTime:  s,
	}
}
