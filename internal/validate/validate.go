// Package validate composes the sanitizer and classifier into the single
// report the host layer consumes, and guards the host message boundary
// with a fixed command whitelist.
package validate

import (
	"strings"

	"github.com/promptprep/promptprep/internal/classify"
)

// Thresholds carries the configured limits the facade validates against.
type Thresholds struct {
	MaxSafeSize         int
	ComplexityThreshold int
}

// DefaultThresholds returns the limits used when no configuration is
// loaded.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxSafeSize:         8000,
		ComplexityThreshold: 500,
	}
}

// Text validates raw text and returns the combined report. Empty input
// is a validation-kind error; everything else degrades to warnings.
func Text(text string, th Thresholds) (*classify.ValidationReport, error) {
	return classify.Validate(text, th.MaxSafeSize, th.ComplexityThreshold)
}

// HostMessage is the envelope a host (editor extension, dashboard, API
// client) sends across the boundary.
type HostMessage struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
	Format  string `json:"format,omitempty"`
	Mode    string `json:"mode,omitempty"`
	MaxSize int    `json:"max_size,omitempty"`
}

// allowedCommands is the fixed whitelist for host messages. Anything
// else is rejected before reaching the pipeline.
var allowedCommands = map[string]bool{
	"validate":       true,
	"escapeQuotes":   true,
	"chunk":          true,
	"detectLanguage": true,
	"formatOutput":   true,
	"sessionStats":   true,
	"resetSession":   true,
}

// AllowedCommands returns the whitelist in a caller-owned slice.
// Order is unspecified.
func AllowedCommands() []string {
	out := make([]string, 0, len(allowedCommands))
	for cmd := range allowedCommands {
		out = append(out, cmd)
	}
	return out
}

// HostMessageOK reports whether msg is a well-formed host message with a
// whitelisted command. A nil message is never valid.
func HostMessageOK(msg *HostMessage) bool {
	if msg == nil {
		return false
	}
	cmd := strings.TrimSpace(msg.Command)
	if cmd == "" {
		return false
	}
	return allowedCommands[cmd]
}
