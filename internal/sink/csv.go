package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/willfong/san-simulator/internal/models"
)

// CSVWriter is a streaming, buffered CSV writer for results tables.
// Optionally supports xz compression via external xz process.
type CSVWriter struct {
	file       *os.File  // Only used for uncompressed output
	xzWriter   *XZWriter // Only used for compressed output
	buffer     *bufio.Writer
	writer     *csv.Writer
	mu         sync.Mutex
	rowCount   int64
	closed     bool
	compressed bool
}

// CSVWriterConfig holds configuration for creating a CSV writer
type CSVWriterConfig struct {
	// Output path. With Compress, ".xz" is appended when missing
	Path string
	// Column headers (default: models.Columns)
	Headers []string
	// Buffer size in bytes (default: 64KB)
	BufferSize int
	// Enable xz compression
	Compress bool
	// XZ compression preset 0-9 (default: 6)
	XZPreset int
}

// NewCSVWriter creates a new streaming CSV writer.
// The file is created immediately and headers are written.
func NewCSVWriter(cfg CSVWriterConfig) (*CSVWriter, error) {
	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	headers := cfg.Headers
	if headers == nil {
		headers = models.Columns
	}

	var underlying io.Writer
	var file *os.File
	var xzWriter *XZWriter

	if cfg.Compress {
		var err error
		xzWriter, err = NewXZWriter(XZWriterConfig{
			Path:   cfg.Path,
			Preset: cfg.XZPreset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		underlying = xzWriter
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		var err error
		file, err = os.Create(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create file %s: %w", cfg.Path, err)
		}
		underlying = file
	}

	buffer := bufio.NewWriterSize(underlying, bufSize)
	writer := csv.NewWriter(buffer)

	cw := &CSVWriter{
		file:       file,
		xzWriter:   xzWriter,
		buffer:     buffer,
		writer:     writer,
		compressed: cfg.Compress,
	}

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			cw.closeUnderlying()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return cw, nil
}

// WriteRows writes multiple rows to the CSV file.
// This method is thread-safe.
func (w *CSVWriter) WriteRows(rows [][]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	for _, row := range rows {
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		w.rowCount++
	}

	return nil
}

// WriteRecords formats and writes records in models.Columns order.
func (w *CSVWriter) WriteRecords(ctx context.Context, records []models.Record) error {
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
		if err := w.writer.Write(FormatRow(rec)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		w.rowCount++
	}

	return nil
}

// Flush forces any buffered data to be written to disk.
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("csv flush error: %w", err)
	}
	return w.buffer.Flush()
}

// Close flushes remaining data and closes the file.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.closeUnderlying()
		return fmt.Errorf("csv flush error: %w", err)
	}

	if err := w.buffer.Flush(); err != nil {
		w.closeUnderlying()
		return fmt.Errorf("buffer flush error: %w", err)
	}

	return w.closeUnderlying()
}

// closeUnderlying closes the underlying writer (file or xz process)
func (w *CSVWriter) closeUnderlying() error {
	if w.compressed {
		return w.xzWriter.Close()
	}
	return w.file.Close()
}

// RowCount returns the number of data rows written (excludes header).
func (w *CSVWriter) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Path returns the full path to the output file (.csv or .csv.xz)
func (w *CSVWriter) Path() string {
	if w.compressed {
		return w.xzWriter.Path()
	}
	return w.file.Name()
}

// OpenTable opens a results table for reading, decompressing .xz files.
func OpenTable(path string) (io.ReadCloser, error) {
	if strings.HasSuffix(path, ".xz") {
		return NewXZReader(path)
	}
	return os.Open(path)
}

// ReadCSV reads a results table written by CSVWriter.
func ReadCSV(path string) ([]models.Record, error) {
	f, err := OpenTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	records, err := ReadRecords(f)
	closeErr := f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	return records, nil
}

// ReadRecords parses CSV results from r. Columns may appear in any order;
// extra columns are ignored.
func ReadRecords(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table")
	}
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRow(idx, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
