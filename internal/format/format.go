// Package format post-processes assistant replies for display: fence
// normalization, embedded-tag reflow, and optional rendering to HTML or
// a styled terminal view.
package format

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/promptprep/promptprep/internal/detect"
	"github.com/promptprep/promptprep/internal/fault"
)

// Mode selects the output transform.
type Mode string

const (
	ModeDefault  Mode = "default"
	ModeEnhanced Mode = "enhanced"
	ModeMarkdown Mode = "markdown"
	ModeHTML     Mode = "html"
	// ModeTerminal renders markdown for an ANSI terminal.
	ModeTerminal Mode = "terminal"
)

// ParseMode converts a mode string from the CLI or API.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDefault, ModeEnhanced, ModeMarkdown, ModeHTML, ModeTerminal:
		return Mode(s), nil
	case "":
		return ModeDefault, nil
	}
	return "", fault.Validation("bad_format", "unknown output format "+s)
}

// Renderer converts markdown to markup. Implementations must return
// valid markup for valid markdown and surface failures as errors rather
// than panicking.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Highlighter converts code to highlighted markup given a language hint.
// An unknown hint triggers auto-detection; a failure falls back to
// escaped plain text inside the implementation, so Highlight only errors
// on unrecoverable conditions.
type Highlighter interface {
	Highlight(code, langHint string) (string, error)
}

// Formatter applies output transforms. The zero value is not usable;
// construct with New.
type Formatter struct {
	renderer    Renderer
	highlighter Highlighter
	terminal    Renderer
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithRenderer overrides the markdown-to-HTML renderer.
func WithRenderer(r Renderer) Option { return func(f *Formatter) { f.renderer = r } }

// WithHighlighter overrides the syntax highlighter.
func WithHighlighter(h Highlighter) Option { return func(f *Formatter) { f.highlighter = h } }

// WithTerminalRenderer overrides the terminal renderer.
func WithTerminalRenderer(r Renderer) Option { return func(f *Formatter) { f.terminal = r } }

// New creates a Formatter with the default goldmark renderer and chroma
// highlighter.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		renderer:    newHTMLRenderer(),
		highlighter: newChromaHighlighter(""),
		terminal:    newTerminalRenderer(0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format applies the transform for mode. The html and terminal paths
// await a rendering step; ctx bounds that wait. Any transform failure
// returns a processing-kind error carrying the requested format, never a
// partial result.
func (f *Formatter) Format(ctx context.Context, text string, mode Mode) (string, error) {
	switch mode {
	case ModeDefault:
		return text, nil
	case ModeEnhanced, ModeMarkdown:
		return f.formatMarkdown(text), nil
	case ModeHTML:
		return f.formatHTML(ctx, text)
	case ModeTerminal:
		return f.formatTerminal(ctx, text)
	}
	return "", fault.Validation("bad_format", "unknown output format "+string(mode))
}

// formatMarkdown applies fence normalization then embedded-tag reflow.
func (f *Formatter) formatMarkdown(text string) string {
	return ReformatTags(NormalizeFences(text))
}

func (f *Formatter) formatHTML(ctx context.Context, text string) (string, error) {
	md := f.formatMarkdown(text)

	if err := ctx.Err(); err != nil {
		return "", fault.Processing("render_canceled", string(ModeHTML), err)
	}
	rendered, err := f.renderer.Render(md)
	if err != nil {
		return "", fault.Processing("render_failed", string(ModeHTML), err)
	}

	highlighted, err := f.highlightRendered(rendered)
	if err != nil {
		return "", fault.Processing("highlight_failed", string(ModeHTML), err)
	}
	return sanitizeHTML(highlighted), nil
}

func (f *Formatter) formatTerminal(ctx context.Context, text string) (string, error) {
	md := f.formatMarkdown(text)
	if err := ctx.Err(); err != nil {
		return "", fault.Processing("render_canceled", string(ModeTerminal), err)
	}
	out, err := f.terminal.Render(md)
	if err != nil {
		return "", fault.Processing("render_failed", string(ModeTerminal), err)
	}
	return out, nil
}

const fence = "```"

// nextFence finds the next line-leading fence marker at or after from.
func nextFence(text string, from int) int {
	for {
		idx := strings.Index(text[from:], fence)
		if idx < 0 {
			return -1
		}
		abs := from + idx
		if abs == 0 || text[abs-1] == '\n' {
			return abs
		}
		from = abs + len(fence)
	}
}

// NormalizeFences rewrites every fenced code block: untagged fences gain
// a detected language (left untagged when detection has no confidence)
// and blank lines at the block edges are trimmed. Idempotent.
func NormalizeFences(text string) string {
	var b strings.Builder
	pos := 0
	for {
		open := nextFence(text, pos)
		if open < 0 {
			b.WriteString(text[pos:])
			break
		}
		b.WriteString(text[pos:open])

		// Opening fence line.
		langEnd := open + len(fence)
		if nl := strings.IndexByte(text[langEnd:], '\n'); nl >= 0 {
			langEnd += nl
		} else {
			// Unterminated opening line: pass the rest through.
			b.WriteString(text[open:])
			break
		}
		lang := strings.TrimSpace(text[open+len(fence) : langEnd])

		bodyStart := langEnd + 1
		closeIdx := nextFence(text, bodyStart)
		if closeIdx < 0 {
			// Unterminated block: pass through untouched.
			b.WriteString(text[open:])
			break
		}
		body := text[bodyStart:closeIdx]

		trimmed := strings.Trim(body, "\n")
		if lang == "" {
			if m := detect.Detect(trimmed); m.Language != "" {
				lang = m.Language
			}
		}

		b.WriteString(fence)
		b.WriteString(lang)
		b.WriteString("\n")
		if trimmed != "" {
			b.WriteString(trimmed)
			b.WriteString("\n")
		}
		b.WriteString(fence)

		pos = closeIdx + len(fence)
	}
	return b.String()
}

var (
	functionResultsRe = regexp.MustCompile(`(?s)<function_results>\s*(.*?)\s*</function_results>`)
	codeSnippetRe     = regexp.MustCompile(`(?s)<code_snippet([^>]*)>(.*?)</code_snippet>`)
	pathAttrRe        = regexp.MustCompile(`path\s*=\s*"([^"]*)"`)
	modeAttrRe        = regexp.MustCompile(`mode\s*=\s*"([^"]*)"`)
)

// ReformatTags reflows the two known embedded tag families into a
// canonical shape. Unrecognized tags pass through unchanged.
func ReformatTags(text string) string {
	text = functionResultsRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := functionResultsRe.FindStringSubmatch(m)[1]
		return "<details>\n<summary>Function results</summary>\n\n" +
			fence + "\n" + inner + "\n" + fence + "\n\n</details>"
	})

	text = codeSnippetRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := codeSnippetRe.FindStringSubmatch(m)
		attrs, inner := sub[1], strings.Trim(sub[2], "\n")

		path := ""
		if pm := pathAttrRe.FindStringSubmatch(attrs); pm != nil {
			path = pm[1]
		}
		snippetMode := "EXCERPT"
		if mm := modeAttrRe.FindStringSubmatch(attrs); mm != nil && mm[1] != "" {
			snippetMode = mm[1]
		}
		return fmt.Sprintf("<code_snippet path=%q mode=%q>\n%s\n</code_snippet>", path, snippetMode, inner)
	})

	return text
}
