package format

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// terminalRenderer renders markdown for an ANSI terminal with glamour.
type terminalRenderer struct {
	width int
}

func newTerminalRenderer(width int) *terminalRenderer {
	if width <= 0 {
		width = 100
	}
	return &terminalRenderer{width: width}
}

// Render converts markdown to a styled terminal string.
func (r *terminalRenderer) Render(markdown string) (string, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := tr.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render for terminal: %w", err)
	}
	return out, nil
}
