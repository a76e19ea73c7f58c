package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/willfong/san-simulator/internal/utils"
)

// MultiProgress tracks concurrent runs with one live line each.
type MultiProgress struct {
	ui        *UI
	items     map[string]*ProgressItem
	order     []string // insertion order
	mu        sync.Mutex
	rendered  bool
	lineCount int
}

// ProgressItem represents a single run being tracked.
type ProgressItem struct {
	Name      string
	Samples   int64
	StartTime time.Time
	Elapsed   time.Duration
	Status    Status
	Message   string // Final message when complete
	Error     error
}

// NewMultiProgress creates a new multi-line progress tracker.
func (u *UI) NewMultiProgress() *MultiProgress {
	return &MultiProgress{
		ui:    u,
		items: make(map[string]*ProgressItem),
	}
}

// AddItem adds a run to track.
func (m *MultiProgress) AddItem(name string, samples int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[name] = &ProgressItem{
		Name:    name,
		Samples: samples,
		Status:  StatusPending,
	}
	m.order = append(m.order, name)
}

// Start marks an item as in progress.
func (m *MultiProgress) Start(name string) {
	m.mu.Lock()
	if item, ok := m.items[name]; ok {
		item.Status = StatusProgress
		item.StartTime = time.Now()
	}
	m.mu.Unlock()

	m.Render()
}

// Complete marks an item as successfully completed.
func (m *MultiProgress) Complete(name string, message string) {
	m.finish(name, StatusSuccess, message, nil)
}

// Fail marks an item as failed.
func (m *MultiProgress) Fail(name string, err error) {
	m.finish(name, StatusError, "", err)
}

func (m *MultiProgress) finish(name string, status Status, message string, err error) {
	m.mu.Lock()
	item, ok := m.items[name]
	if ok {
		item.Status = status
		item.Message = message
		item.Error = err
		if !item.StartTime.IsZero() {
			item.Elapsed = time.Since(item.StartTime)
		}
	}
	m.mu.Unlock()

	if ok && !m.ui.shouldStyle() {
		m.mu.Lock()
		fmt.Fprintln(m.ui.Out, m.plainItem(item))
		m.mu.Unlock()
		return
	}
	m.Render()
}

// Render redraws all progress lines. Plain output prints each item once
// when it finishes instead.
func (m *MultiProgress) Render() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ui.shouldStyle() {
		return
	}

	if m.rendered && m.lineCount > 0 {
		fmt.Fprintf(m.ui.Out, "\033[%dA", m.lineCount)
	}

	for _, name := range m.order {
		fmt.Fprintf(m.ui.Out, "\033[K%s\n", m.renderItem(m.items[name]))
	}

	m.rendered = true
	m.lineCount = len(m.order)
}

func (m *MultiProgress) renderItem(item *ProgressItem) string {
	nameStyle := lipgloss.NewStyle().Width(16)
	var symbol, detail string

	switch item.Status {
	case StatusPending:
		symbol = StyleMuted.Render(SymbolPending)
		detail = StyleMuted.Render("waiting...")

	case StatusProgress:
		symbol = StyleProgress.Render(SymbolProgress)
		detail = StyleMuted.Render(fmt.Sprintf("evaluating %s samples...", utils.FormatCount(item.Samples)))

	case StatusSuccess:
		symbol = StyleSuccess.Render(SymbolSuccess)
		detail = item.Message
		if detail == "" {
			detail = StyleSuccess.Render("complete")
		}
		detail += StyleMuted.Render(" (" + formatDuration(item.Elapsed) + ")")

	case StatusError:
		symbol = StyleError.Render(SymbolError)
		if item.Error != nil {
			detail = StyleError.Render(item.Error.Error())
		} else {
			detail = StyleError.Render("failed")
		}
	}

	return fmt.Sprintf("  %s %s %s", symbol, nameStyle.Render(item.Name), detail)
}

func (m *MultiProgress) plainItem(item *ProgressItem) string {
	switch item.Status {
	case StatusError:
		return fmt.Sprintf("  %-16s FAILED: %v", item.Name+":", item.Error)
	default:
		msg := item.Message
		if msg == "" {
			msg = "complete"
		}
		return fmt.Sprintf("  %-16s %s (%s)", item.Name+":", msg, formatDuration(item.Elapsed))
	}
}

// Finish leaves the final state of every item on screen.
func (m *MultiProgress) Finish() {
	m.Render()
}

// HasErrors returns true if any item has failed.
func (m *MultiProgress) HasErrors() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if item.Status == StatusError {
			return true
		}
	}
	return false
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hrs := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hrs, mins)
}

// DurationSince returns formatted duration since a time.
func DurationSince(t time.Time) string {
	return formatDuration(time.Since(t))
}
