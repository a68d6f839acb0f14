package format

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/promptprep/promptprep/internal/fault"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"default", ModeDefault, false},
		{"enhanced", ModeEnhanced, false},
		{"markdown", ModeMarkdown, false},
		{"html", ModeHTML, false},
		{"terminal", ModeTerminal, false},
		{"", ModeDefault, false},
		{"fancy", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDefaultIsIdentity(t *testing.T) {
	f := New()
	in := "raw text with ``` odd fences and <tags>"
	out, err := f.Format(context.Background(), in, ModeDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("default mode must not alter text")
	}
}

func TestNormalizeFences(t *testing.T) {
	t.Run("injects detected language", func(t *testing.T) {
		in := "before\n```\npackage main\n\nfunc main() {\n\tx := 1\n\tdefer f()\n}\n```\nafter"
		out := NormalizeFences(in)
		if !strings.Contains(out, "```go\n") {
			t.Errorf("expected go tag injected:\n%s", out)
		}
	})

	t.Run("keeps explicit language", func(t *testing.T) {
		in := "```python\nprint('x')\n```"
		out := NormalizeFences(in)
		if !strings.Contains(out, "```python\n") {
			t.Errorf("explicit tag lost:\n%s", out)
		}
	})

	t.Run("leaves untagged when no confidence", func(t *testing.T) {
		in := "```\nplain words only here\n```"
		out := NormalizeFences(in)
		if !strings.HasPrefix(out, "```\n") {
			t.Errorf("low-confidence fence should stay untagged:\n%s", out)
		}
	})

	t.Run("trims blank edge lines", func(t *testing.T) {
		in := "```python\n\n\nprint('x')\n\n```"
		out := NormalizeFences(in)
		want := "```python\nprint('x')\n```"
		if out != want {
			t.Errorf("got %q, want %q", out, want)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{
			"no fences at all",
			"```\npackage main\nfunc main() {}\nx := 1\ndefer f()\n```",
			"text\n```python\n\nprint('x')\n\n```\nmore",
			"```\nunterminated block",
		}
		for _, in := range inputs {
			once := NormalizeFences(in)
			twice := NormalizeFences(once)
			if once != twice {
				t.Errorf("not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
			}
		}
	})

	t.Run("unterminated fence passes through", func(t *testing.T) {
		in := "start\n```go\nnever closed"
		if out := NormalizeFences(in); out != in {
			t.Errorf("unterminated block altered: %q", out)
		}
	})
}

func TestReformatTags(t *testing.T) {
	t.Run("function results become collapsible", func(t *testing.T) {
		in := "<function_results>\nexit 0\nok\n</function_results>"
		out := ReformatTags(in)
		if !strings.Contains(out, "<details>") || !strings.Contains(out, "<summary>") {
			t.Errorf("expected collapsible section:\n%s", out)
		}
		if !strings.Contains(out, "```\nexit 0\nok\n```") {
			t.Errorf("expected plain fence around results:\n%s", out)
		}
	})

	t.Run("code snippet canonicalized", func(t *testing.T) {
		in := `<code_snippet path="src/main.go" mode="FULL">` + "\n\nfunc main() {}\n\n" + `</code_snippet>`
		out := ReformatTags(in)
		if !strings.Contains(out, `path="src/main.go"`) || !strings.Contains(out, `mode="FULL"`) {
			t.Errorf("attributes lost:\n%s", out)
		}
		if !strings.Contains(out, ">\nfunc main() {}\n<") {
			t.Errorf("inner content not trimmed:\n%s", out)
		}
	})

	t.Run("mode defaults to EXCERPT", func(t *testing.T) {
		in := `<code_snippet path="a.py">x = 1</code_snippet>`
		out := ReformatTags(in)
		if !strings.Contains(out, `mode="EXCERPT"`) {
			t.Errorf("missing default mode:\n%s", out)
		}
	})

	t.Run("unknown tags pass through", func(t *testing.T) {
		in := "<thinking>hidden</thinking> and <custom attr=\"1\"/>"
		if out := ReformatTags(in); out != in {
			t.Errorf("unknown tags altered: %q", out)
		}
	})
}

func TestFormatHTML(t *testing.T) {
	f := New()

	t.Run("renders markdown with highlighted code", func(t *testing.T) {
		in := "# Title\n\nSome text.\n\n```go\nfunc main() {}\n```\n"
		out, err := f.Format(context.Background(), in, ModeHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "<h1") {
			t.Errorf("heading not rendered:\n%s", out)
		}
		if !strings.Contains(out, "<pre") {
			t.Errorf("code block not rendered:\n%s", out)
		}
	})

	t.Run("strips script tags", func(t *testing.T) {
		in := "hello <script>alert(1)</script> world"
		out, err := f.Format(context.Background(), in, ModeHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "<script>") {
			t.Errorf("script survived sanitization:\n%s", out)
		}
	})

	t.Run("canceled context is a processing error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.Format(ctx, "# x", ModeHTML)
		if !fault.IsKind(err, fault.KindProcessing) {
			t.Errorf("expected processing error, got %v", err)
		}
	})
}

type failingRenderer struct{}

func (failingRenderer) Render(string) (string, error) { return "", errors.New("boom") }

func TestFormatHTMLRenderFailure(t *testing.T) {
	f := New(WithRenderer(failingRenderer{}))
	_, err := f.Format(context.Background(), "# x", ModeHTML)
	if err == nil {
		t.Fatal("expected error from failing renderer")
	}
	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected fault error, got %T", err)
	}
	if fe.Kind != fault.KindProcessing {
		t.Errorf("kind = %q, want processing", fe.Kind)
	}
	if !strings.Contains(fe.Details, string(ModeHTML)) {
		t.Errorf("error should carry the requested format: %q", fe.Details)
	}
}

func TestHighlighterFallback(t *testing.T) {
	h := newChromaHighlighter("")
	out, err := h.Highlight("func main() {}", "not-a-language")
	if err != nil {
		t.Fatalf("highlighting must not fail for unknown hints: %v", err)
	}
	if out == "" {
		t.Error("expected markup output")
	}
}

func TestFormatMarkdownPipeline(t *testing.T) {
	f := New()
	in := "intro\n\n```\nSELECT id FROM users WHERE id = 1;\nINSERT INTO t (a) VALUES (1);\nCREATE TABLE x (id INT);\n```\n\n<function_results>done</function_results>\n"
	out, err := f.Format(context.Background(), in, ModeEnhanced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "```sql") {
		t.Errorf("fence not normalized:\n%s", out)
	}
	if !strings.Contains(out, "<details>") {
		t.Errorf("tags not reflowed:\n%s", out)
	}
}
