// Package simulator runs the load profile generator and the queueing engine
// together: one run per scenario/encryption combination, each producing one
// record per load sample. Runs share no state and may execute in parallel.
package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/willfong/san-simulator/internal/logging"
	"github.com/willfong/san-simulator/internal/models"
	"github.com/willfong/san-simulator/internal/profile"
	"github.com/willfong/san-simulator/internal/queue"
)

// ctxCheckInterval is how many samples are evaluated between context checks
const ctxCheckInterval = 4096

// RunSpec fully describes one run. It is treated as immutable.
type RunSpec struct {
	Link       models.Link
	Encryption bool
	Profile    profile.Config

	PacketBytes  float64
	OverheadFrac float64
	EncMsPerMB   float64
}

// Name returns a short label such as "ethernet" or "fc+enc".
func (s RunSpec) Name() string {
	if s.Encryption {
		return s.Link.Name + "+enc"
	}
	return s.Link.Name
}

// Params returns the queueing parameters for this run.
func (s RunSpec) Params() queue.Params {
	return queue.Params{
		CapacityBps:  s.Link.CapacityBps,
		PacketBytes:  s.PacketBytes,
		OverheadFrac: s.OverheadFrac,
		Encryption:   s.Encryption,
		EncMsPerMB:   s.EncMsPerMB,
	}
}

// Result is the output of one run
type Result struct {
	Spec    RunSpec
	Seed    int64 // noise seed actually used
	Records []models.Record
	Elapsed time.Duration
}

// Run generates the load profile for spec and evaluates the queueing engine
// at every sample, in time order.
func Run(ctx context.Context, spec RunSpec) (*Result, error) {
	log := logging.FromContext(ctx).With("run", spec.Name())
	start := time.Now()

	prof, err := profile.Generate(spec.Profile)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", spec.Name(), err)
	}

	params := spec.Params()
	svc := queue.NewServiceRate(params)
	log.Debug("service model",
		"mu_pkts_s", svc.Rate,
		"transmission_s", svc.TransmissionTime,
		"enc_delay_s", svc.EncryptionDelay)

	records := make([]models.Record, len(prof.Samples))
	for i, sample := range prof.Samples {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("run %s: %w", spec.Name(), err)
			}
		}
		m := queue.EvaluateWithService(sample.Load, params, svc)
		records[i] = newRecord(spec, sample.Time, m)
	}

	res := &Result{
		Spec:    spec,
		Seed:    prof.Seed,
		Records: records,
		Elapsed: time.Since(start),
	}
	log.Debug("run complete", "rows", len(records), "seed", res.Seed, "elapsed", res.Elapsed)

	return res, nil
}

func newRecord(spec RunSpec, t float64, m queue.Metrics) models.Record {
	return models.Record{
		Time:                    t,
		Scenario:                spec.Link.Name,
		Encryption:              spec.Encryption,
		CapacityBps:             spec.Link.CapacityBps,
		PacketBytes:             spec.PacketBytes,
		OverheadFrac:            spec.OverheadFrac,
		OfferedMBps:             m.OfferedMBps,
		ArrivalRate:             m.ArrivalRate,
		ServiceRate:             m.Service.Rate,
		TransmissionTime:        m.Service.TransmissionTime,
		EncryptionDelay:         m.Service.EncryptionDelay,
		ServiceTime:             m.ServiceTime,
		Utilization:             m.Utilization,
		TimeInSystem:            m.TimeInSystem,
		QueueDelay:              m.QueueDelay,
		LossRatio:               m.LossRatio,
		ThroughputMBps:          m.ThroughputMBps,
		EffectiveThroughputMBps: m.EffectiveThroughputMBps,
		Saturated:               m.Saturated,
		Congested:               m.Congested,
	}
}
