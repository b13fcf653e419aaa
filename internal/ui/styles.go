// Package ui styles console output with lipgloss. Styling is dropped for
// NO_COLOR, non-TTY output, or after Disable.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var disabled bool

var (
	bold    = lipgloss.NewStyle().Bold(true)
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errText = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

func render(style lipgloss.Style, s string) string {
	if disabled {
		return s
	}
	return style.Render(s)
}

func Bold(s string) string   { return render(bold, s) }
func Green(s string) string  { return render(green, s) }
func Red(s string) string    { return render(red, s) }
func Yellow(s string) string { return render(yellow, s) }
func Cyan(s string) string   { return render(cyan, s) }
func Dim(s string) string    { return render(dim, s) }

// Error styles an error line.
func Error(s string) string { return render(errText, s) }

// Branch styles a branch name.
func Branch(name string) string { return render(cyan, name) }

// Version styles a version id.
func Version(id string) string { return render(yellow, id) }

// DiffStat renders "+added -removed" for a file summary line.
func DiffStat(added, removed int) string {
	return render(green, fmt.Sprintf("+%d", added)) + " " + render(red, fmt.Sprintf("-%d", removed))
}

// Disable forces plain text, e.g. for --no-color.
func Disable() { disabled = true }

// Reset re-enables styling.
func Reset() { disabled = false }

// Enabled reports whether styling is applied.
func Enabled() bool { return !disabled }
