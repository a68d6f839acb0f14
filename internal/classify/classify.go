// Package classify computes size and complexity classifications for text
// bound for a size-constrained assistant.
//
// Classification never fails for well-formed input: when nothing is
// noteworthy the functions return zero values and empty suggestions.
// Only structurally invalid input (empty text) raises a validation error.
package classify

import (
	"fmt"
	"strings"

	"github.com/promptprep/promptprep/internal/fault"
	"github.com/promptprep/promptprep/internal/patterns"
	"github.com/promptprep/promptprep/internal/sanitize"
)

// TextClassification is the derived size/complexity verdict for one text.
// Recomputed per call, never persisted.
type TextClassification struct {
	IsOversized       bool   `json:"is_oversized" yaml:"is_oversized"`
	SizeChars         int    `json:"size_chars" yaml:"size_chars"`
	RecommendedChunks int    `json:"recommended_chunks" yaml:"recommended_chunks"`
	IsComplex         bool   `json:"is_complex" yaml:"is_complex"`
	ComplexityReason  string `json:"complexity_reason,omitempty" yaml:"complexity_reason,omitempty"`
}

// ValidationReport is the combined verdict handed to the host layer.
type ValidationReport struct {
	IsValid            bool               `json:"is_valid" yaml:"is_valid"`
	Warnings           []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Classification     TextClassification `json:"classification" yaml:"classification"`
	HasUnescapedQuotes bool               `json:"has_unescaped_quotes" yaml:"has_unescaped_quotes"`
}

// SizeCheck is the result of a size classification.
type SizeCheck struct {
	IsLarge           bool
	RecommendedChunks int
	Suggestion        string
}

// CheckSize classifies text length against maxSafeSize. The suggestion
// names the exact character count, the configured maximum, and the
// recommended chunk count (ceiling division).
func CheckSize(text string, maxSafeSize int) SizeCheck {
	n := len(text)
	if maxSafeSize <= 0 || n <= maxSafeSize {
		return SizeCheck{RecommendedChunks: 1}
	}
	chunks := (n + maxSafeSize - 1) / maxSafeSize
	return SizeCheck{
		IsLarge:           true,
		RecommendedChunks: chunks,
		Suggestion: fmt.Sprintf(
			"Text is %d characters, above the %d character limit. Consider splitting it into %d chunks.",
			n, maxSafeSize, chunks),
	}
}

// DetectComplexity returns a breakdown advisory when the text is both
// longer than threshold and phrased like a broad multi-step task.
// Returns "" when neither condition holds; it never errors.
func DetectComplexity(text string, threshold int) string {
	if threshold <= 0 || len(text) <= threshold {
		return ""
	}
	if !patterns.MatchesComplexity(text) {
		return ""
	}

	var b strings.Builder
	b.WriteString("This looks like a broad multi-step task. Breaking it into smaller, focused requests usually gives better results.")

	// Domain lines are purely additive and emitted in a fixed order.
	if patterns.HasDocumentationCue(text) {
		b.WriteString("\n- Documentation: generate docs one module or file at a time.")
	}
	if patterns.HasRefactorCue(text) {
		b.WriteString("\n- Refactoring/migration: change one component per request and verify before moving on.")
	}
	if patterns.HasTestingCue(text) {
		b.WriteString("\n- Testing: request tests per package or feature rather than the whole suite.")
	}
	return b.String()
}

// Classify computes the full classification for text.
func Classify(text string, maxSafeSize, complexityThreshold int) TextClassification {
	size := CheckSize(text, maxSafeSize)
	reason := DetectComplexity(text, complexityThreshold)
	return TextClassification{
		IsOversized:       size.IsLarge,
		SizeChars:         len(text),
		RecommendedChunks: size.RecommendedChunks,
		IsComplex:         reason != "",
		ComplexityReason:  reason,
	}
}

// Validate composes the size check, unescaped-quote check and complexity
// check into a single report. Empty or whitespace-only text is the one
// structurally invalid input and raises a validation-kind error.
func Validate(text string, maxSafeSize, complexityThreshold int) (*ValidationReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fault.Validation("empty_input", "text must be a non-empty string")
	}

	report := &ValidationReport{
		Classification:     Classify(text, maxSafeSize, complexityThreshold),
		HasUnescapedQuotes: sanitize.HasUnescapedQuotes(text),
	}

	if report.Classification.IsOversized {
		size := CheckSize(text, maxSafeSize)
		report.Warnings = append(report.Warnings, size.Suggestion)
	}
	if report.HasUnescapedQuotes {
		report.Warnings = append(report.Warnings, "Text contains unescaped double quotes; they will be escaped before sending.")
	}
	if report.Classification.IsComplex {
		report.Warnings = append(report.Warnings, report.Classification.ComplexityReason)
	}

	report.IsValid = len(report.Warnings) == 0
	return report, nil
}
