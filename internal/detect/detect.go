// Package detect guesses the programming language of a code snippet by
// scoring it against the pattern catalog.
//
// This is a heuristic classifier, not a parser: false positives and
// negatives are acceptable and no input makes it fail.
package detect

import (
	"strings"

	"github.com/promptprep/promptprep/internal/patterns"
)

const (
	// ConfidencePerMatch is the score contributed by each pattern hit.
	ConfidencePerMatch = 0.2
	// MinConfidence is the floor a candidate must exceed to be reported.
	MinConfidence = 0.3
	// maxCountedMatches bounds the regexp scan; anything past this is
	// already at the confidence cap.
	maxCountedMatches = 8
)

// Match is the result of a detection. A zero Match means no detection.
type Match struct {
	Language   string  `json:"language,omitempty" yaml:"language,omitempty"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Detect scores every catalog language against code and returns the best
// candidate, or a zero Match when nothing clears the confidence floor.
// Ties go to the language declared first in the catalog.
func Detect(code string) Match {
	if strings.TrimSpace(code) == "" {
		return Match{}
	}

	best := Match{}
	for _, lang := range patterns.Languages() {
		hits := lang.Re.FindAllStringIndex(code, maxCountedMatches)
		if len(hits) == 0 {
			continue
		}
		conf := float64(len(hits)) * ConfidencePerMatch
		if conf > 1.0 {
			conf = 1.0
		}
		// Strictly greater: earlier catalog entries win ties.
		if conf > best.Confidence {
			best = Match{Language: lang.Name, Confidence: conf}
		}
	}

	if best.Confidence <= MinConfidence {
		return Match{}
	}
	return best
}
