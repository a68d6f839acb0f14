package format

import (
	"bytes"
	"fmt"
	"html"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// htmlRenderer renders markdown to HTML with goldmark.
type htmlRenderer struct {
	md goldmark.Markdown
}

func newHTMLRenderer() *htmlRenderer {
	return &htmlRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(ghtml.WithHardWraps()),
		),
	}
}

// Render converts markdown to HTML.
func (r *htmlRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// codeBlockRe matches the pre/code blocks goldmark emits for fenced code.
var codeBlockRe = regexp.MustCompile(`(?s)<pre><code(?: class="language-([^"]*)")?>(.*?)</code></pre>`)

// highlightRendered replaces each rendered code block with syntax
// highlighted markup. Highlighting failures keep the escaped original
// block; they are never fatal to formatting.
func (f *Formatter) highlightRendered(rendered string) (string, error) {
	var firstErr error
	out := codeBlockRe.ReplaceAllStringFunc(rendered, func(m string) string {
		sub := codeBlockRe.FindStringSubmatch(m)
		lang, escaped := sub[1], sub[2]
		code := html.UnescapeString(escaped)

		highlighted, err := f.highlighter.Highlight(code, lang)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return highlighted
	})
	return out, firstErr
}

// sanitizePolicy keeps the markup goldmark and chroma produce while
// stripping anything a hostile reply could smuggle in. Inline style
// attributes are allowed because chroma colors tokens with them.
var sanitizePolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("details", "summary")
	p.AllowAttrs("style").OnElements("span", "pre", "code", "div")
	p.AllowAttrs("class").OnElements("span", "pre", "code", "div")
	return p
}()

// sanitizeHTML strips unsafe markup from rendered output.
func sanitizeHTML(s string) string {
	return sanitizePolicy.Sanitize(s)
}
