package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/willfong/san-simulator/internal/models"
)

// jsonFloat encodes +Inf, -Inf and NaN as strings, which JSON numbers
// cannot represent.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseFloat(s)
		if err != nil {
			return err
		}
		*f = jsonFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

// jsonRecord is one JSON line. Keys match the CSV header.
type jsonRecord struct {
	Time                    jsonFloat `json:"time_s"`
	Scenario                string    `json:"scenario"`
	Encryption              bool      `json:"encryption"`
	OfferedMBps             jsonFloat `json:"offered_MB_s"`
	ThroughputMBps          jsonFloat `json:"throughput_MB_s"`
	EffectiveThroughputMBps jsonFloat `json:"effective_throughput_MB_s"`
	CapacityBps             jsonFloat `json:"capacity_bps"`
	PacketBytes             jsonFloat `json:"packet_bytes"`
	OverheadFrac            jsonFloat `json:"pkt_overhead_frac"`
	ArrivalRate             jsonFloat `json:"lambda_pkts_s"`
	ServiceRate             jsonFloat `json:"mu_pkts_s"`
	TransmissionTime        jsonFloat `json:"service_time_s"`
	ServiceTime             jsonFloat `json:"avg_service_time_s"`
	EncryptionDelay         jsonFloat `json:"enc_delay_per_pkt_s"`
	Utilization             jsonFloat `json:"utilization_rho"`
	TimeInSystem            jsonFloat `json:"avg_system_time_s"`
	QueueDelay              jsonFloat `json:"avg_queue_time_s"`
	LossRatio               jsonFloat `json:"loss_ratio"`
	Saturated               bool      `json:"saturated"`
	Congested               bool      `json:"congested"`
}

func toJSON(r models.Record) jsonRecord {
	return jsonRecord{
		Time:                    jsonFloat(r.Time),
		Scenario:                r.Scenario,
		Encryption:              r.Encryption,
		OfferedMBps:             jsonFloat(r.OfferedMBps),
		ThroughputMBps:          jsonFloat(r.ThroughputMBps),
		EffectiveThroughputMBps: jsonFloat(r.EffectiveThroughputMBps),
		CapacityBps:             jsonFloat(r.CapacityBps),
		PacketBytes:             jsonFloat(r.PacketBytes),
		OverheadFrac:            jsonFloat(r.OverheadFrac),
		ArrivalRate:             jsonFloat(r.ArrivalRate),
		ServiceRate:             jsonFloat(r.ServiceRate),
		TransmissionTime:        jsonFloat(r.TransmissionTime),
		ServiceTime:             jsonFloat(r.ServiceTime),
		EncryptionDelay:         jsonFloat(r.EncryptionDelay),
		Utilization:             jsonFloat(r.Utilization),
		TimeInSystem:            jsonFloat(r.TimeInSystem),
		QueueDelay:              jsonFloat(r.QueueDelay),
		LossRatio:               jsonFloat(r.LossRatio),
		Saturated:               r.Saturated,
		Congested:               r.Congested,
	}
}

func (j jsonRecord) record() models.Record {
	return models.Record{
		Time:                    float64(j.Time),
		Scenario:                j.Scenario,
		Encryption:              j.Encryption,
		OfferedMBps:             float64(j.OfferedMBps),
		ThroughputMBps:          float64(j.ThroughputMBps),
		EffectiveThroughputMBps: float64(j.EffectiveThroughputMBps),
		CapacityBps:             float64(j.CapacityBps),
		PacketBytes:             float64(j.PacketBytes),
		OverheadFrac:            float64(j.OverheadFrac),
		ArrivalRate:             float64(j.ArrivalRate),
		ServiceRate:             float64(j.ServiceRate),
		TransmissionTime:        float64(j.TransmissionTime),
		ServiceTime:             float64(j.ServiceTime),
		EncryptionDelay:         float64(j.EncryptionDelay),
		Utilization:             float64(j.Utilization),
		TimeInSystem:            float64(j.TimeInSystem),
		QueueDelay:              float64(j.QueueDelay),
		LossRatio:               float64(j.LossRatio),
		Saturated:               j.Saturated,
		Congested:               j.Congested,
	}
}

// JSONLWriter writes records as JSON Lines, one object per sample.
type JSONLWriter struct {
	file   *os.File
	buffer *bufio.Writer
	enc    *json.Encoder
	mu     sync.Mutex
	closed bool
}

// NewJSONLWriter creates path and returns a writer for it.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	buf := bufio.NewWriterSize(f, 64*1024)
	return &JSONLWriter{file: f, buffer: buf, enc: json.NewEncoder(buf)}, nil
}

// WriteRecords appends one line per record.
func (w *JSONLWriter) WriteRecords(ctx context.Context, records []models.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	for i, rec := range records {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := w.enc.Encode(toJSON(rec)); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return nil
}

// Path returns the output file path
func (w *JSONLWriter) Path() string {
	return w.file.Name()
}

// Close flushes and closes the file.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buffer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("buffer flush error: %w", err)
	}
	return w.file.Close()
}

// ReadJSONL decodes records from r and hands them to fn in batches of at
// most batchSize. The slice passed to fn is reused between calls.
func ReadJSONL(r io.Reader, batchSize int, fn func([]models.Record) error) (int64, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	dec := json.NewDecoder(bufio.NewReader(r))
	batch := make([]models.Record, 0, batchSize)
	var total int64

	for {
		var jr jsonRecord
		err := dec.Decode(&jr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("record %d: %w", total+int64(len(batch))+1, err)
		}
		batch = append(batch, jr.record())
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return total, err
			}
			total += int64(len(batch))
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return total, err
		}
		total += int64(len(batch))
	}
	return total, nil
}

// Replay streams a JSON Lines file into w in batches.
func Replay(ctx context.Context, r io.Reader, w RecordWriter, batchSize int) (int64, error) {
	return ReadJSONL(r, batchSize, func(batch []models.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return w.WriteRecords(ctx, batch)
	})
}
