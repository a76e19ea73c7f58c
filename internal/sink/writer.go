// Package sink writes and reads results tables. Every destination implements
// RecordWriter so a run can fan out to several of them at once.
package sink

import (
	"context"
	"errors"

	"github.com/willfong/san-simulator/internal/models"
)

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = errors.New("writer is closed")

// RecordWriter receives result rows in order.
type RecordWriter interface {
	WriteRecords(ctx context.Context, records []models.Record) error
	Close() error
}

// MultiWriter fans out records to multiple writers.
type MultiWriter struct {
	writers []RecordWriter
}

// NewMultiWriter creates a MultiWriter. Nil writers are skipped.
func NewMultiWriter(writers ...RecordWriter) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// Len returns the number of destinations.
func (mw *MultiWriter) Len() int {
	return len(mw.writers)
}

// WriteRecords sends records to every writer, stopping at the first error.
func (mw *MultiWriter) WriteRecords(ctx context.Context, records []models.Record) error {
	for _, w := range mw.writers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteRecords(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and returns all close errors joined.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
