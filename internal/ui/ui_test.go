package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPlainOutput(t *testing.T) {
	u := NewWithWriter(&bytes.Buffer{})

	if got := u.Header("Simulate"); got != "=== Simulate ===" {
		t.Errorf("Expected plain header, got %q", got)
	}
	if got := u.Success("done"); got != "[OK] done" {
		t.Errorf("Expected plain success, got %q", got)
	}
	if got := u.Error("boom"); got != "[FAILED] boom" {
		t.Errorf("Expected plain error, got %q", got)
	}
	if got := u.KeyValue("Scenario", "fc"); got != "Scenario:    fc" {
		t.Errorf("Expected padded key value, got %q", got)
	}
}

func TestSummaryBoxPlain(t *testing.T) {
	u := NewWithWriter(&bytes.Buffer{})
	box := u.SummaryBox("Run Complete", []KV{
		{"Scenario", "ethernet"},
		{"Saturated", "12.50%"},
	})

	if !strings.Contains(box, "=== Run Complete ===") {
		t.Errorf("Expected title in box, got %q", box)
	}
	if !strings.Contains(box, "Saturated:         12.50%") {
		t.Errorf("Expected aligned row, got %q", box)
	}
}

func TestTablePlain(t *testing.T) {
	u := NewWithWriter(&bytes.Buffer{})
	out := u.Table([]string{"scenario", "enc", "avg"}, [][]string{
		{"ethernet", "off", "49.02 MB/s"},
		{"fc", "on", "1.2 MB/s"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "scenario  enc  avg" {
		t.Errorf("Unexpected header line %q", lines[0])
	}
	if lines[2] != "fc        on   1.2 MB/s" {
		t.Errorf("Unexpected row line %q", lines[2])
	}
}

func TestMultiProgressPlain(t *testing.T) {
	var buf bytes.Buffer
	u := NewWithWriter(&buf)
	m := u.NewMultiProgress()

	m.AddItem("ethernet", 6001)
	m.AddItem("fc+enc", 6001)
	m.Start("ethernet")
	m.Start("fc+enc")
	m.Complete("ethernet", "6,001 rows")
	m.Fail("fc+enc", errors.New("invalid profile"))
	m.Finish()

	out := buf.String()
	if !strings.Contains(out, "ethernet:") || !strings.Contains(out, "6,001 rows") {
		t.Errorf("Expected completed line, got %q", out)
	}
	if !strings.Contains(out, "fc+enc:") || !strings.Contains(out, "FAILED: invalid profile") {
		t.Errorf("Expected failed line, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Error("Plain output must not contain escape sequences")
	}
	if !m.HasErrors() {
		t.Error("Expected HasErrors to be true")
	}
}

func TestProgressBarPlain(t *testing.T) {
	var buf bytes.Buffer
	u := NewWithWriter(&buf)

	p := u.NewProgressBar("results.csv", 10)
	p.Update(4)
	if buf.Len() != 0 {
		t.Errorf("Expected no output before completion, got %q", buf.String())
	}
	p.Update(10)
	p.Complete()

	if got := buf.String(); got != "results.csv: 10/10 rows written\n" {
		t.Errorf("Unexpected completion line %q", got)
	}
}

func TestSpinnerPlain(t *testing.T) {
	var buf bytes.Buffer
	u := NewWithWriter(&buf)

	s := u.NewSpinner("Writing to GreptimeDB")
	s.Start()
	s.Success("done")
	s.Success("twice")

	if got := buf.String(); got != "Writing to GreptimeDB... done\n" {
		t.Errorf("Unexpected spinner output %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
