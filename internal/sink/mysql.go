package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/willfong/san-simulator/internal/config"
	"github.com/willfong/san-simulator/internal/database"
	"github.com/willfong/san-simulator/internal/models"
)

// resultStore is the subset of *database.Pool used by MySQLWriter.
type resultStore interface {
	InsertResultsTx(ctx context.Context, table, runID string, records []models.Record, batchSize int) (int64, error)
	Close() error
}

// MySQLWriter inserts records into a MySQL or MariaDB results table.
type MySQLWriter struct {
	store     resultStore
	table     string
	runID     string
	batchSize int

	mu     sync.Mutex
	closed bool
	rows   int64
}

// NewMySQLWriter opens a pool, verifies the connection and creates the
// results table if needed.
func NewMySQLWriter(ctx context.Context, cfg config.DatabaseConfig, runID string) (*MySQLWriter, error) {
	pool, err := database.NewPool(cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Connect(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := database.EnsureSchema(ctx, pool, cfg.Table); err != nil {
		pool.Close()
		return nil, err
	}

	return &MySQLWriter{
		store:     pool,
		table:     cfg.Table,
		runID:     runID,
		batchSize: cfg.BatchSize,
	}, nil
}

// WriteRecords inserts records in one transaction.
func (w *MySQLWriter) WriteRecords(ctx context.Context, records []models.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	n, err := w.store.InsertResultsTx(ctx, w.table, w.runID, records, w.batchSize)
	if err != nil {
		return fmt.Errorf("mysql insert failed: %w", err)
	}
	w.rows += n
	return nil
}

// Rows returns the number of rows inserted so far.
func (w *MySQLWriter) Rows() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close closes the connection pool.
func (w *MySQLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.store.Close()
}
