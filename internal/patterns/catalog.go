// Package patterns holds the static detection tables used by the pipeline:
// per-language signature regexps and complexity-indicator phrases.
//
// The catalog is built once at package init and never mutated afterwards,
// so it is safe to read from any number of goroutines.
package patterns

import "regexp"

// LanguagePattern pairs a language name with its signature regexp.
// Declaration order is significant: it breaks confidence ties.
type LanguagePattern struct {
	Name string
	Re   *regexp.Regexp
}

// languageTable lists language signatures from most to least specific.
// These are heuristics, not grammars; a handful of keyword hits per
// language is enough to tag a code fence.
var languageTable = []LanguagePattern{
	{"go", regexp.MustCompile(`(?m)\bfunc\s+\w+\s*\(|\bpackage\s+\w+|:=|\bgo\s+func\b|\bchan\b|\bdefer\b`)},
	{"rust", regexp.MustCompile(`(?m)\bfn\s+\w+|\blet\s+mut\b|\bimpl\b|\bpub\s+fn\b|::\w+!|\bmatch\s+\w+\s*\{`)},
	{"python", regexp.MustCompile(`(?m)\bdef\s+\w+\s*\(|\bimport\s+\w+|\bself\b|^\s*@\w+|\belif\b|\bprint\(`)},
	{"typescript", regexp.MustCompile(`(?m)\binterface\s+\w+|:\s*(string|number|boolean)\b|\bexport\s+(type|interface|const)\b|<\w+>\(`)},
	{"javascript", regexp.MustCompile(`(?m)\bconst\s+\w+\s*=|\bfunction\s+\w*\s*\(|=>\s*\{|\blet\s+\w+|console\.log|\brequire\(`)},
	{"java", regexp.MustCompile(`(?m)\bpublic\s+(class|static|void)\b|\bprivate\s+\w+|System\.out|\bnew\s+\w+\(|@Override`)},
	{"csharp", regexp.MustCompile(`(?m)\busing\s+System|\bnamespace\s+\w+|\bpublic\s+class\b|Console\.Write|\bvar\s+\w+\s*=`)},
	{"cpp", regexp.MustCompile(`(?m)#include\s*<|\bstd::|\bcout\b|\btemplate\s*<|\bnullptr\b`)},
	{"c", regexp.MustCompile(`(?m)#include\s*<\w+\.h>|\bprintf\s*\(|\bmalloc\s*\(|\bstruct\s+\w+\s*\{|\bvoid\s+\w+\s*\(`)},
	{"ruby", regexp.MustCompile(`(?m)\bdef\s+\w+$|\bend$|\bputs\b|\brequire\s+['"]|\bdo\s+\|`)},
	{"php", regexp.MustCompile(`(?m)<\?php|\$\w+\s*=|\becho\s+|\bfunction\s+\w+\s*\(.*\)\s*\{`)},
	{"shell", regexp.MustCompile(`(?m)^#!/bin/(ba)?sh|\becho\s+["$]|\bfi$|\besac$|\$\{\w+\}|^\s*if\s+\[`)},
	{"sql", regexp.MustCompile(`(?mi)\bSELECT\s+.+\s+FROM\b|\bINSERT\s+INTO\b|\bCREATE\s+TABLE\b|\bWHERE\s+\w+\s*=|\bJOIN\s+\w+\s+ON\b`)},
	{"html", regexp.MustCompile(`(?mi)<!DOCTYPE\s+html|<html\b|<div\b|<body\b|</\w+>`)},
	{"css", regexp.MustCompile(`(?m)[.#]?[\w-]+\s*\{[^}]*:[^}]*\}|@media\b|@import\b`)},
	{"json", regexp.MustCompile(`(?m)^\s*\{\s*"|"\w+"\s*:\s*("|\d|\[|\{|true|false|null)`)},
	{"yaml", regexp.MustCompile(`(?m)^\w[\w-]*:\s+\S|^\s+-\s+\w|^---$`)},
	{"xml", regexp.MustCompile(`(?m)<\?xml\b|<\w+\s+[\w:]+="[^"]*"\s*/?>`)},
	{"markdown", regexp.MustCompile(`(?m)^#{1,6}\s+\S|^\*\s+\S|^\d+\.\s+\S|\[.+\]\(.+\)`)},
}

// complexityTable lists phrasings that suggest a task spans many steps
// and should be broken down before submission.
var complexityTable = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwrite\s+(complete|full|comprehensive)\s+documentation\b`),
	regexp.MustCompile(`(?i)\bimplement\s+(the\s+)?(entire|whole|complete|all)\b`),
	regexp.MustCompile(`(?i)\brefactor\s+(everything|all|the\s+entire)\b`),
	regexp.MustCompile(`(?i)\brewrite\s+(the\s+)?(entire|whole|all)\b`),
	regexp.MustCompile(`(?i)\bmigrate\s+(the\s+)?(entire|whole|all|everything)\b`),
	regexp.MustCompile(`(?i)\b(create|build|generate)\s+(a\s+)?(complete|full|entire)\b`),
	regexp.MustCompile(`(?i)\ball\s+(modules|files|components|functions|classes)\b`),
	regexp.MustCompile(`(?i)\bfrom\s+scratch\b`),
	regexp.MustCompile(`(?i)\bend[\s-]to[\s-]end\b`),
}

// Secondary cues append domain-specific advisory lines. Kept separate
// from the indicator table so the advisory stays purely additive.
var (
	docsCue     = regexp.MustCompile(`(?i)\b(documentation|docs|readme|api\s+reference|docstrings?)\b`)
	refactorCue = regexp.MustCompile(`(?i)\b(refactor|migrate|migration|restructure|rewrite)\b`)
	testingCue  = regexp.MustCompile(`(?i)\b(tests?|testing|coverage|test\s+suite|unit\s+tests?)\b`)
)

// Languages returns the language patterns in declaration order.
// The returned slice must not be modified.
func Languages() []LanguagePattern { return languageTable }

// ComplexityIndicators returns the complexity-indicator regexps.
// The returned slice must not be modified.
func ComplexityIndicators() []*regexp.Regexp { return complexityTable }

// MatchesComplexity reports whether text matches any complexity indicator.
func MatchesComplexity(text string) bool {
	for _, re := range complexityTable {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// HasDocumentationCue reports whether text mentions documentation work.
func HasDocumentationCue(text string) bool { return docsCue.MatchString(text) }

// HasRefactorCue reports whether text mentions refactoring or migration.
func HasRefactorCue(text string) bool { return refactorCue.MatchString(text) }

// HasTestingCue reports whether text mentions test work.
func HasTestingCue(text string) bool { return testingCue.MatchString(text) }
