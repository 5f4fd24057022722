// Package ui renders terminal output for the CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var enabled = term.IsTerminal(int(os.Stdout.Fd()))

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyles = map[string]lipgloss.Style{
		"waiting":     lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		"in_progress": lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"done":        lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		"blocked":     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

// RenderAccent highlights a short fragment.
func RenderAccent(s string) string {
	if !enabled {
		return s
	}
	return accentStyle.Render(s)
}

// RenderWarn styles a warning fragment.
func RenderWarn(s string) string {
	if !enabled {
		return s
	}
	return warnStyle.Render(s)
}

// RenderDim styles secondary text.
func RenderDim(s string) string {
	if !enabled {
		return s
	}
	return dimStyle.Render(s)
}

// RenderStatus colors a task status by its conventional value. Unknown
// statuses pass through unstyled.
func RenderStatus(status string) string {
	if !enabled {
		return status
	}
	if style, ok := statusStyles[status]; ok {
		return style.Render(status)
	}
	return status
}
