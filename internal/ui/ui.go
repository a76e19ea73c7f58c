// Package ui provides styled terminal output for the sansim CLI.
// It uses the Charm.sh ecosystem for styling with automatic fallback
// to plain text for non-TTY environments.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

// UI holds the terminal state and provides styled output methods.
type UI struct {
	Out     io.Writer
	IsTTY   bool
	Width   int
	NoColor bool
}

// KV represents a key-value pair for summary displays.
type KV struct {
	Key   string
	Value string
}

// New creates a UI writing to stdout with TTY detection.
func New() *UI {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	width := 80
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	return &UI{
		Out:     os.Stdout,
		IsTTY:   isTTY,
		Width:   width,
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// NewWithWriter creates a plain-text UI writing to w.
func NewWithWriter(w io.Writer) *UI {
	return &UI{Out: w, Width: 80}
}

// SetNoColor disables colors and animations.
func (u *UI) SetNoColor(noColor bool) {
	u.NoColor = noColor
}

// shouldStyle returns true if we should use styled output.
func (u *UI) shouldStyle() bool {
	return u.IsTTY && !u.NoColor
}

// Println writes a line to the UI output.
func (u *UI) Println(a ...any) {
	fmt.Fprintln(u.Out, a...)
}

// Printf writes formatted text to the UI output.
func (u *UI) Printf(format string, a ...any) {
	fmt.Fprintf(u.Out, format, a...)
}

// Header renders a bordered header box.
func (u *UI) Header(title string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("=== %s ===", title)
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 2)

	return style.Render(title)
}

// KeyValue renders a styled key-value pair.
func (u *UI) KeyValue(key, value string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("%-12s %s", key+":", value)
	}

	keyStyle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Width(14)
	valueStyle := lipgloss.NewStyle().
		Bold(true)

	return "  " + keyStyle.Render(key) + " " + valueStyle.Render(value)
}

// Success renders a success message with a green checkmark.
func (u *UI) Success(msg string) string {
	if !u.shouldStyle() {
		return "[OK] " + msg
	}

	return StyleSuccess.Render(SymbolSuccess+" ") + msg
}

// Error renders an error message with a red X.
func (u *UI) Error(msg string) string {
	if !u.shouldStyle() {
		return "[FAILED] " + msg
	}

	return StyleError.Render(SymbolError + " " + msg)
}

// Warning renders a warning message.
func (u *UI) Warning(msg string) string {
	if !u.shouldStyle() {
		return "[WARN] " + msg
	}

	return StyleWarning.Render(SymbolWarning + " " + msg)
}

// Muted renders muted/dim text.
func (u *UI) Muted(msg string) string {
	if !u.shouldStyle() {
		return msg
	}

	return StyleMuted.Render(msg)
}

// SummaryBox renders a bordered summary section. Values under the "Status"
// and "Saturated" keys are colored by outcome.
func (u *UI) SummaryBox(title string, items []KV) string {
	if !u.shouldStyle() {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("\n=== %s ===\n", title))
		for _, item := range items {
			sb.WriteString(fmt.Sprintf("%-18s %s\n", item.Key+":", item.Value))
		}
		return sb.String()
	}

	maxKeyWidth := 0
	for _, item := range items {
		if len(item.Key) > maxKeyWidth {
			maxKeyWidth = len(item.Key)
		}
	}

	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(maxKeyWidth + 2)
	valueStyle := lipgloss.NewStyle().Bold(true)

	var lines []string
	for _, item := range items {
		value := item.Value
		lower := strings.ToLower(value)
		switch {
		case item.Key == "Status" && strings.Contains(lower, "success"):
			value = StyleSuccess.Render(SymbolSuccess + " " + value)
		case item.Key == "Status" && strings.Contains(lower, "fail"):
			value = StyleError.Render(SymbolError + " " + value)
		case item.Key == "Saturated" && !strings.HasPrefix(value, "0.00%"):
			value = StyleWarning.Render(value)
		default:
			value = valueStyle.Render(value)
		}

		lines = append(lines, "  "+keyStyle.Render(item.Key)+" "+value)
	}
	content := strings.Join(lines, "\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorSuccess)

	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Padding(0, 1)

	return "\n" + titleStyle.Render("  "+title) + "\n" + boxStyle.Render(content)
}

// Table renders rows under headers. Plain output pads columns with spaces.
func (u *UI) Table(headers []string, rows [][]string) string {
	if !u.shouldStyle() {
		widths := make([]int, len(headers))
		for i, h := range headers {
			widths[i] = len(h)
		}
		for _, row := range rows {
			for i, cell := range row {
				if i < len(widths) && len(cell) > widths[i] {
					widths[i] = len(cell)
				}
			}
		}

		var sb strings.Builder
		writeRow := func(cells []string) {
			for i, cell := range cells {
				if i >= len(widths) {
					break
				}
				if i > 0 {
					sb.WriteString("  ")
				}
				if i == len(cells)-1 {
					sb.WriteString(cell)
				} else {
					sb.WriteString(fmt.Sprintf("%-*s", widths[i], cell))
				}
			}
			sb.WriteString("\n")
		}
		writeRow(headers)
		for _, row := range rows {
			writeRow(row)
		}
		return sb.String()
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return StyleTableHeader
			}
			return StyleTableCell
		})

	return t.Render() + "\n"
}

// Section prints a section header.
func (u *UI) Section(title string) {
	if !u.shouldStyle() {
		fmt.Fprintf(u.Out, "\n%s\n", title)
		return
	}

	fmt.Fprintf(u.Out, "\n%s\n", lipgloss.NewStyle().Bold(true).Render(title))
}

// Status represents the status of an operation.
type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusProgress
	StatusSuccess
	StatusError
)
