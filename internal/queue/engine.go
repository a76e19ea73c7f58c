package queue

import "math"

// CongestionThreshold is the utilization above which a sample is flagged as
// congested.
const CongestionThreshold = 0.7

// Metrics is the engine output for a single load sample
type Metrics struct {
	OfferedMBps float64
	ArrivalRate float64
	Service     ServiceRate
	MM1

	LossRatio               float64
	ThroughputMBps          float64
	EffectiveThroughputMBps float64

	Saturated bool
	Congested bool
}

// Evaluate runs the full per-sample pipeline: arrival rate, service model,
// M/M/1 metrics, loss and throughput, then overhead normalization.
func Evaluate(offeredMBps float64, p Params) Metrics {
	return EvaluateWithService(offeredMBps, p, NewServiceRate(p))
}

// EvaluateWithService is Evaluate with a precomputed service model. The
// service model depends only on Params, so a run computes it once.
func EvaluateWithService(offeredMBps float64, p Params, svc ServiceRate) Metrics {
	lambda := ArrivalRate(offeredMBps, p.PacketBytes, p.OverheadFrac)
	mu := svc.Rate

	q := SolveMM1(lambda, mu)
	loss := LossRatio(lambda, mu)

	saturated := lambda > 0 && lambda >= mu
	if saturated {
		q.TimeInSystem = math.Inf(1)
		q.QueueDelay = math.Inf(1)
	}

	throughput := offeredMBps * (1 - loss)

	return Metrics{
		OfferedMBps:             offeredMBps,
		ArrivalRate:             lambda,
		Service:                 svc,
		MM1:                     q,
		LossRatio:               loss,
		ThroughputMBps:          throughput,
		EffectiveThroughputMBps: effectiveThroughput(throughput, p.OverheadFrac),
		Saturated:               saturated,
		Congested:               q.Utilization > CongestionThreshold,
	}
}

// effectiveThroughput strips packetization overhead from a wire rate. The
// result is never negative.
func effectiveThroughput(throughput, overheadFrac float64) float64 {
	divisor := 1 + overheadFrac
	if divisor <= 0 {
		divisor = 1
	}
	return math.Max(throughput/divisor, 0)
}
