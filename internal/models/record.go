package models

// Record is one row of the results table: the queueing metrics for a single
// load sample of a single run. Records are never mutated after creation.
type Record struct {
	// Identity
	Time       float64 // seconds since run start
	Scenario   string
	Encryption bool

	// Scenario parameters echoed on every row
	CapacityBps  float64
	PacketBytes  float64
	OverheadFrac float64

	// Offered load and rates
	OfferedMBps float64
	ArrivalRate float64 // lambda, packets/s
	ServiceRate float64 // mu, packets/s

	// Per-packet service components (seconds)
	TransmissionTime float64
	EncryptionDelay  float64
	ServiceTime      float64 // 1/mu

	// M/M/1 results. TimeInSystem and QueueDelay are +Inf when unstable;
	// Utilization is NaN when the service rate is not positive.
	Utilization  float64
	TimeInSystem float64
	QueueDelay   float64

	// Loss and delivered rates
	LossRatio               float64
	ThroughputMBps          float64
	EffectiveThroughputMBps float64

	// Flags
	Saturated bool // arrival >= service
	Congested bool // utilization above the congestion threshold
}

// ThroughputMbps returns the post-loss throughput in megabits per second.
func (r Record) ThroughputMbps() float64 {
	return r.ThroughputMBps * 8
}

// CapacityGbps returns the link capacity in Gbps.
func (r Record) CapacityGbps() float64 {
	return r.CapacityBps / 1e9
}

// Columns is the results-table header. Column presence, naming and order
// are consumed by downstream plotting and analysis tools; append only.
var Columns = []string{
	"time_s",
	"scenario",
	"encryption",
	"offered_MB_s",
	"throughput_MB_s",
	"effective_throughput_MB_s",
	"throughput_Mbps",
	"capacity_Gbps",
	"packet_bytes",
	"pkt_overhead_frac",
	"lambda_pkts_s",
	"mu_pkts_s",
	"service_time_s",
	"avg_service_time_s",
	"enc_delay_per_pkt_s",
	"utilization_rho",
	"avg_system_time_s",
	"avg_queue_time_s",
	"loss_ratio",
	"saturated",
	"congested",
}

// Values returns the row in Columns order. Numeric cells are float64, the
// scenario is a string and flags are bool.
func (r Record) Values() []any {
	return []any{
		r.Time,
		r.Scenario,
		r.Encryption,
		r.OfferedMBps,
		r.ThroughputMBps,
		r.EffectiveThroughputMBps,
		r.ThroughputMbps(),
		r.CapacityGbps(),
		r.PacketBytes,
		r.OverheadFrac,
		r.ArrivalRate,
		r.ServiceRate,
		r.TransmissionTime,
		r.ServiceTime,
		r.EncryptionDelay,
		r.Utilization,
		r.TimeInSystem,
		r.QueueDelay,
		r.LossRatio,
		r.Saturated,
		r.Congested,
	}
}
