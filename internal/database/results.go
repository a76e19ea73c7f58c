package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"math"
	"strings"

	"github.com/willfong/san-simulator/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Execer is the subset of *Pool and *sql.Tx used for inserts
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Schema returns the CREATE TABLE statement for the results table
func Schema(table string) string {
	return strings.ReplaceAll(schemaSQL, "{{table}}", quoteIdent(table))
}

// EnsureSchema creates the results table if it does not exist
func EnsureSchema(ctx context.Context, ex Execer, table string) error {
	if _, err := ex.ExecContext(ctx, Schema(table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// ResultColumns returns the SQL column list: run_id followed by the results
// table columns, lowercased.
func ResultColumns() []string {
	cols := make([]string, 0, len(models.Columns)+1)
	cols = append(cols, "run_id")
	for _, c := range models.Columns {
		cols = append(cols, strings.ToLower(c))
	}
	return cols
}

// BuildInsert returns a multi-row INSERT for n rows
func BuildInsert(table string, n int) string {
	cols := ResultColumns()

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(row)
	}
	return b.String()
}

// InsertResults inserts records in batches of batchSize rows per statement.
// It returns the number of rows written before any error.
func InsertResults(ctx context.Context, ex Execer, table, runID string, records []models.Record, batchSize int) (int64, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	var written int64
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		chunk := records[start:end]

		args := make([]any, 0, len(chunk)*(len(models.Columns)+1))
		for _, rec := range chunk {
			args = append(args, resultArgs(runID, rec)...)
		}

		if _, err := ex.ExecContext(ctx, BuildInsert(table, len(chunk)), args...); err != nil {
			return written, fmt.Errorf("failed to insert rows %d-%d: %w", start, end-1, err)
		}
		written += int64(len(chunk))
	}
	return written, nil
}

// InsertResultsTx inserts all records in one transaction
func (p *Pool) InsertResultsTx(ctx context.Context, table, runID string, records []models.Record, batchSize int) (int64, error) {
	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	n, err := InsertResults(ctx, tx, table, runID, records, batchSize)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit results: %w", err)
	}
	return n, nil
}

// resultArgs returns the placeholder values for one row. Non-finite floats
// become NULL.
func resultArgs(runID string, rec models.Record) []any {
	values := rec.Values()
	args := make([]any, 0, len(values)+1)
	args = append(args, runID)
	for _, v := range values {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			args = append(args, nil)
			continue
		}
		args = append(args, v)
	}
	return args
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
