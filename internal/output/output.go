// Package output renders command results for humans and machines. A
// Formatter is bound to one writer; styling degrades to plain text when
// the writer is not a terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// Formatter writes styled or plain output depending on the destination.
type Formatter struct {
	writer io.Writer
	color  bool
	width  int

	titleStyle lipgloss.Style
	okStyle    lipgloss.Style
	warnStyle  lipgloss.Style
	errorStyle lipgloss.Style
	mutedStyle lipgloss.Style
}

// Option customizes a Formatter.
type Option func(*Formatter)

// WithColor forces color on or off regardless of TTY detection.
func WithColor(enabled bool) Option {
	return func(f *Formatter) { f.color = enabled }
}

// WithWidth sets the wrap width for long prose output.
func WithWidth(width int) Option {
	return func(f *Formatter) { f.width = width }
}

// New creates a Formatter bound to w. Color is enabled when w is a
// terminal, NO_COLOR is unset, and the terminal advertises a color
// profile.
func New(w io.Writer, opts ...Option) *Formatter {
	f := &Formatter{
		writer: w,
		color:  detectColor(w),
		width:  100,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	f.okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))     // Green
	f.warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))  // Orange
	f.errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // Red
	f.mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Gray

	return f
}

func detectColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(file.Fd()) && !isatty.IsCygwinTerminal(file.Fd()) {
		return false
	}
	return termenv.NewOutput(file).ColorProfile() != termenv.Ascii
}

func (f *Formatter) styled(style lipgloss.Style, s string) string {
	if !f.color {
		return s
	}
	return style.Render(s)
}

// Title prints a bold section heading.
func (f *Formatter) Title(format string, args ...interface{}) {
	fmt.Fprintln(f.writer, f.styled(f.titleStyle, fmt.Sprintf(format, args...)))
}

// Success prints a confirmation line.
func (f *Formatter) Success(format string, args ...interface{}) {
	fmt.Fprintln(f.writer, f.styled(f.okStyle, "✓ ")+fmt.Sprintf(format, args...))
}

// Warning prints an advisory line.
func (f *Formatter) Warning(format string, args ...interface{}) {
	fmt.Fprintln(f.writer, f.styled(f.warnStyle, "! ")+fmt.Sprintf(format, args...))
}

// Error prints a failure line.
func (f *Formatter) Error(format string, args ...interface{}) {
	fmt.Fprintln(f.writer, f.styled(f.errorStyle, "✗ ")+fmt.Sprintf(format, args...))
}

// Muted prints a de-emphasized line.
func (f *Formatter) Muted(format string, args ...interface{}) {
	fmt.Fprintln(f.writer, f.styled(f.mutedStyle, fmt.Sprintf(format, args...)))
}

// Prose wraps long text to the configured width before printing.
func (f *Formatter) Prose(text string) {
	fmt.Fprintln(f.writer, wordwrap.String(text, f.width))
}

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v interface{}) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (f *Formatter) YAML(v interface{}) error {
	enc := yaml.NewEncoder(f.writer)
	defer enc.Close()
	return enc.Encode(v)
}
