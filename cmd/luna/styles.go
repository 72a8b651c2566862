package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorError   = lipgloss.Color("#ef4444") // red-500
	colorWarning = lipgloss.Color("#eab308") // yellow-500
	colorInfo    = lipgloss.Color("#06b6d4") // cyan-500
	colorPass    = lipgloss.Color("#10b981") // green-500
	colorDim     = lipgloss.Color("#6b7280") // gray-500
	colorAccent  = lipgloss.Color("#3b82f6") // blue-500
)

// styles holds the lipgloss styles of the terminal reports.
type styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Pass    lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
	Path    lipgloss.Style

	SymbolPass string
	SymbolFail string

	// Tree characters for the outline
	TreeMiddle string
	TreeEnd    string
	TreeBar    string
}

// newStyles returns colored styles when w is a terminal and plain ones otherwise.
func newStyles(w io.Writer) *styles {
	s := &styles{
		SymbolPass: "✓",
		SymbolFail: "✗",
		TreeMiddle: "├─",
		TreeEnd:    "╰─",
		TreeBar:    "│ ",
	}

	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		plain := lipgloss.NewStyle()
		s.Error, s.Warning, s.Info, s.Pass, s.Dim, s.Bold, s.Path = plain, plain, plain, plain, plain, plain, plain

		return s
	}

	s.Error = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	s.Warning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	s.Info = lipgloss.NewStyle().Foreground(colorInfo)
	s.Pass = lipgloss.NewStyle().Foreground(colorPass).Bold(true)
	s.Dim = lipgloss.NewStyle().Foreground(colorDim)
	s.Bold = lipgloss.NewStyle().Bold(true)
	s.Path = lipgloss.NewStyle().Foreground(colorAccent)

	return s
}
