// Package queue converts an offered-load sample and a link's parameters into
// M/M/1 queueing metrics. It is a closed-form, per-sample approximation:
// no queue state carries over between samples.
//
// The engine never returns an error and never panics on arithmetic edge
// cases. Degenerate inputs produce IEEE-754 sentinels instead: +Inf for
// unbounded delays or service rates, NaN for undefined utilization.
package queue

import "math"

// Params are the fixed parameters of one run
type Params struct {
	// Link line rate in bits per second
	CapacityBps float64

	// Nominal packet payload in bytes
	PacketBytes float64

	// Fractional size increase from headers and framing (0.02 = 2%)
	OverheadFrac float64

	// Encryption adds EncMsPerMB milliseconds of processing per MB of
	// overhead-inflated packet size
	Encryption bool
	EncMsPerMB float64
}

// EffectivePacketBytes returns the on-wire packet size including overhead.
func (p Params) EffectivePacketBytes() float64 {
	return p.PacketBytes * (1 + p.OverheadFrac)
}

// ArrivalRate converts an offered load in MB/s into packets per second for
// packets of packetBytes inflated by overheadFrac. A non-positive packet
// size yields 0.
func ArrivalRate(offeredMBps, packetBytes, overheadFrac float64) float64 {
	packetBits := packetBytes * (1 + overheadFrac) * 8
	if packetBits <= 0 {
		return 0
	}
	return offeredMBps * 8e6 / packetBits
}

// ServiceRate is the bottleneck service model for one packet. The three
// values are always computed together.
type ServiceRate struct {
	// Packets per second; +Inf when the per-packet time is not positive,
	// 0 when the link has no capacity
	Rate float64

	// Seconds to put one overhead-inflated packet on the wire
	TransmissionTime float64

	// Seconds of encryption processing per packet (0 when disabled)
	EncryptionDelay float64
}

// TotalTime returns the per-packet service time the rate is derived from.
func (s ServiceRate) TotalTime() float64 {
	return s.TransmissionTime + s.EncryptionDelay
}

// NewServiceRate computes the per-packet service model for p. Encryption
// time is added to transmission time before the rate is taken, so it
// slows the server rather than being subtracted from throughput.
func NewServiceRate(p Params) ServiceRate {
	effBytes := p.EffectivePacketBytes()

	transmission := math.Inf(1)
	if p.CapacityBps > 0 {
		transmission = effBytes * 8 / p.CapacityBps
	}

	var enc float64
	if p.Encryption && p.EncMsPerMB > 0 {
		enc = (effBytes / 1e6) * (p.EncMsPerMB / 1000)
	}

	total := transmission + enc
	var rate float64
	switch {
	case total <= 0:
		rate = math.Inf(1)
	case math.IsInf(total, 1):
		rate = 0
	default:
		rate = 1 / total
	}

	return ServiceRate{
		Rate:             rate,
		TransmissionTime: transmission,
		EncryptionDelay:  enc,
	}
}
