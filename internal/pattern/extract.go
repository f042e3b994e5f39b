package pattern

import (
	"strings"

	"github.com/Chrisie146/reconex/internal/model"
)

// Default confidence scores per pattern type. More specific pattern types
// start out more trusted.
const (
	confidenceExact      = 1.0
	confidenceMerchant   = 0.9
	confidenceStartsWith = 0.8
	confidenceContains   = 0.7
)

// startsWithTokens is how many leading tokens a starts_with pattern captures.
const startsWithTokens = 2

// Candidate is one pattern derived from a manual assignment, ready to be
// upserted into the pattern store.
type Candidate struct {
	Category   string
	Merchant   string
	Value      string
	Type       model.PatternType
	Confidence float64
}

// Extract derives candidate patterns from a transaction description and a
// user assignment. keyword, when non-empty, overrides the salient-keyword
// selection for the contains pattern. Pure function: same inputs always
// produce the same candidates, whether invoked from the learning loop or
// from an apply-to-similar action.
func Extract(description, category, merchant, keyword string) []Candidate {
	normalized := Normalize(description)
	if normalized == "" {
		return nil
	}

	candidates := []Candidate{{
		Type:       model.PatternExact,
		Value:      normalized,
		Category:   category,
		Merchant:   merchant,
		Confidence: confidenceExact,
	}}

	if tok := MerchantToken(description); tok != "" {
		candidates = append(candidates, Candidate{
			Type:       model.PatternMerchant,
			Value:      tok,
			Category:   category,
			Merchant:   merchant,
			Confidence: confidenceMerchant,
		})
	}

	if tokens := strings.Fields(normalized); len(tokens) > startsWithTokens {
		candidates = append(candidates, Candidate{
			Type:       model.PatternStartsWith,
			Value:      strings.Join(tokens[:startsWithTokens], " "),
			Category:   category,
			Merchant:   merchant,
			Confidence: confidenceStartsWith,
		})
	}

	contains := strings.ToUpper(strings.TrimSpace(keyword))
	if contains == "" {
		contains = SalientKeyword(description)
	}
	if contains != "" && contains != normalized {
		candidates = append(candidates, Candidate{
			Type:       model.PatternContains,
			Value:      contains,
			Category:   category,
			Merchant:   merchant,
			Confidence: confidenceContains,
		})
	}

	return candidates
}
