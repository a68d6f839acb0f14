// Package sanitize provides escaping and defensive input checks for text
// headed to an assistant backend or a rendered view.
package sanitize

import "strings"

// EscapeQuotes prefixes a backslash to every double quote that is not
// already escaped. Applying it twice yields the same result as once.
func EscapeQuotes(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' && (i == 0 || text[i-1] != '\\') {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// HasUnescapedQuotes reports whether text contains a double quote not
// preceded by a backslash. Same predicate as EscapeQuotes.
func HasUnescapedQuotes(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] == '"' && (i == 0 || text[i-1] != '\\') {
			return true
		}
	}
	return false
}

// displayReplacer escapes the five markup-unsafe characters. Ampersand
// is listed first so entities produced by the later substitutions are
// not double-escaped; strings.NewReplacer replaces left to right in a
// single pass, which gives the same guarantee.
var displayReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// ForDisplay escapes markup-unsafe characters for safe rendering.
func ForDisplay(text string) string {
	return displayReplacer.Replace(text)
}

// ValidPath reports whether path is structurally safe to hand to the
// host: non-empty, no parent-directory segments, no home shorthand.
// This is a shape check, not a filesystem check.
func ValidPath(path string) bool {
	if path == "" {
		return false
	}
	if strings.Contains(path, "~") {
		return false
	}
	// Reject ".." as a path segment under either separator.
	norm := strings.ReplaceAll(path, "\\", "/")
	for _, seg := range strings.Split(norm, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
