package ui

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar tracks rows written to the output sinks.
type ProgressBar struct {
	ui      *UI
	bar     progress.Model
	label   string
	total   int64
	current int64
	mu      sync.Mutex
}

// NewProgressBar creates a new progress bar.
func (u *UI) NewProgressBar(label string, total int64) *ProgressBar {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return &ProgressBar{
		ui:    u,
		bar:   bar,
		label: label,
		total: total,
	}
}

// Update sets the current progress value. Plain output stays silent until
// Complete or Fail.
func (p *ProgressBar) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current

	if !p.ui.shouldStyle() {
		return
	}

	pct := 1.0
	if p.total > 0 {
		pct = min(float64(current)/float64(p.total), 1)
	}

	labelStyle := lipgloss.NewStyle().Width(18)
	countStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	fmt.Fprintf(p.ui.Out, "\r\033[K  %s %s %s",
		labelStyle.Render(p.label),
		p.bar.ViewAs(pct),
		countStyle.Render(fmt.Sprintf("%d/%d", current, p.total)),
	)
}

// Complete finishes the progress bar with a success indicator.
func (p *ProgressBar) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ui.shouldStyle() {
		fmt.Fprintf(p.ui.Out, "%s: %d/%d rows written\n", p.label, p.current, p.total)
		return
	}

	labelStyle := lipgloss.NewStyle().Width(18)

	fmt.Fprintf(p.ui.Out, "\r\033[K  %s %s %s\n",
		StyleSuccess.Render(SymbolSuccess),
		labelStyle.Render(p.label),
		StyleSuccess.Render(fmt.Sprintf("%d rows written", p.current)),
	)
}

// Fail finishes the progress bar with an error indicator.
func (p *ProgressBar) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ui.shouldStyle() {
		fmt.Fprintf(p.ui.Out, "%s: FAILED: %v\n", p.label, err)
		return
	}

	labelStyle := lipgloss.NewStyle().Width(18)

	fmt.Fprintf(p.ui.Out, "\r\033[K  %s %s %s\n",
		StyleError.Render(SymbolError),
		labelStyle.Render(p.label),
		StyleError.Render(err.Error()),
	)
}
