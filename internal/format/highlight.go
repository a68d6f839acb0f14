package format

import (
	"bytes"
	"html"
	"log/slog"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// chromaHighlighter highlights code with chroma, using inline styles so
// the output needs no stylesheet.
type chromaHighlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func newChromaHighlighter(styleName string) *chromaHighlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &chromaHighlighter{
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(false)),
	}
}

// Highlight renders code as highlighted HTML. An unknown language hint
// falls back to content analysis; a tokenizer or formatter failure falls
// back to escaped plain text. It never returns an error in practice but
// keeps the error form of the capability interface.
func (h *chromaHighlighter) Highlight(code, langHint string) (string, error) {
	lexer := lexers.Get(langHint)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		slog.Debug("tokenize failed, falling back to plain text", "lang", langHint, "error", err)
		return plainCodeBlock(code), nil
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		slog.Debug("highlight failed, falling back to plain text", "lang", langHint, "error", err)
		return plainCodeBlock(code), nil
	}
	return buf.String(), nil
}

// plainCodeBlock returns the markup-escaped fallback for code that could
// not be highlighted.
func plainCodeBlock(code string) string {
	return "<pre><code>" + html.EscapeString(code) + "</code></pre>"
}
