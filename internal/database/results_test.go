package database

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/willfong/san-simulator/internal/config"
	"github.com/willfong/san-simulator/internal/models"
)

type fakeExecer struct {
	queries []string
	args    [][]any
	failAt  int // 1-based call number to fail, 0 = never
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.failAt == len(f.queries) {
		return nil, errors.New("connection reset")
	}
	return nil, nil
}

func makeRecords(n int) []models.Record {
	recs := make([]models.Record, n)
	for i := range recs {
		recs[i] = models.Record{Time: float64(i), Scenario: "ethernet", ServiceTime: 1e-5}
	}
	return recs
}

func TestBuildInsert(t *testing.T) {
	q := BuildInsert("san_results", 2)

	if !strings.HasPrefix(q, "INSERT INTO `san_results` (run_id, time_s, scenario, encryption, offered_mb_s") {
		t.Errorf("Unexpected insert prefix: %s", q[:80])
	}
	if got := strings.Count(q, "?"); got != 2*(len(models.Columns)+1) {
		t.Errorf("Expected %d placeholders, got %d", 2*(len(models.Columns)+1), got)
	}
	if got := strings.Count(q, "), ("); got != 1 {
		t.Errorf("Expected 2 value tuples, got %d separators", got)
	}
}

func TestInsertResultsBatches(t *testing.T) {
	ex := &fakeExecer{}

	n, err := InsertResults(context.Background(), ex, "san_results", "run-1", makeRecords(1201), 500)
	if err != nil {
		t.Fatalf("InsertResults failed: %v", err)
	}
	if n != 1201 {
		t.Errorf("Expected 1201 rows, got %d", n)
	}
	if len(ex.queries) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(ex.queries))
	}

	width := len(models.Columns) + 1
	for i, want := range []int{500, 500, 201} {
		if got := len(ex.args[i]) / width; got != want {
			t.Errorf("Statement %d: expected %d rows, got %d", i, want, got)
		}
	}
	if ex.args[0][0] != "run-1" {
		t.Errorf("Expected run id first, got %v", ex.args[0][0])
	}
}

func TestInsertResultsNullsNonFinite(t *testing.T) {
	ex := &fakeExecer{}
	rec := models.Record{
		Scenario:     "fc",
		Utilization:  math.NaN(),
		TimeInSystem: math.Inf(1),
		QueueDelay:   math.Inf(1),
		LossRatio:    0.9,
	}

	if _, err := InsertResults(context.Background(), ex, "t", "run", []models.Record{rec}, 10); err != nil {
		t.Fatalf("InsertResults failed: %v", err)
	}

	cols := ResultColumns()
	args := ex.args[0]
	for i, col := range cols {
		switch col {
		case "utilization_rho", "avg_system_time_s", "avg_queue_time_s":
			if args[i] != nil {
				t.Errorf("Expected NULL for %s, got %v", col, args[i])
			}
		case "loss_ratio":
			if args[i] != 0.9 {
				t.Errorf("Expected 0.9 for loss_ratio, got %v", args[i])
			}
		}
	}
}

func TestInsertResultsError(t *testing.T) {
	ex := &fakeExecer{failAt: 2}

	n, err := InsertResults(context.Background(), ex, "t", "run", makeRecords(30), 10)
	if err == nil {
		t.Fatal("Expected error")
	}
	if n != 10 {
		t.Errorf("Expected 10 rows written before failure, got %d", n)
	}
	if !strings.Contains(err.Error(), "rows 10-19") {
		t.Errorf("Expected failing range in error, got %v", err)
	}
}

func TestMaxBatchFitsPlaceholderLimit(t *testing.T) {
	const mysqlMaxPlaceholders = 65535

	perRow := len(ResultColumns())
	if got := config.DBMaxBatchSize * perRow; got > mysqlMaxPlaceholders {
		t.Errorf("Expected max batch to fit %d placeholders, got %d", mysqlMaxPlaceholders, got)
	}
	if got := (config.DBMaxBatchSize + 1) * perRow; got <= mysqlMaxPlaceholders {
		t.Errorf("Expected max batch to be the largest that fits, %d rows still fit", config.DBMaxBatchSize+1)
	}
	if got := strings.Count(BuildInsert("t", config.DBMaxBatchSize), "?"); got > mysqlMaxPlaceholders {
		t.Errorf("Expected at most %d placeholders, got %d", mysqlMaxPlaceholders, got)
	}
}

func TestSchema(t *testing.T) {
	ddl := Schema("results`x")
	if !strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS `results``x`") {
		t.Errorf("Expected quoted table name, got:\n%s", ddl)
	}
	for _, col := range ResultColumns() {
		if !strings.Contains(ddl, col) {
			t.Errorf("Schema is missing column %s", col)
		}
	}

	ex := &fakeExecer{}
	if err := EnsureSchema(context.Background(), ex, "san_results"); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if len(ex.queries) != 1 || !strings.Contains(ex.queries[0], "`san_results`") {
		t.Errorf("Expected one CREATE TABLE, got %v", ex.queries)
	}
}

func TestNewPoolRequiresDSN(t *testing.T) {
	if _, err := NewPool(config.DatabaseConfig{}); err == nil {
		t.Error("Expected error for empty DSN")
	}

	pool, err := NewPool(config.DatabaseConfig{DSN: "user:pass@tcp(127.0.0.1:3306)/san", MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer pool.Close()

	if stats := pool.Stats(); stats.TotalExecs != 0 || stats.AvgLatency != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}
