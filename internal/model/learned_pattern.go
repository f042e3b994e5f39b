package model

import (
	"fmt"
	"time"
)

// PatternType indicates how a learned pattern's value is compared against
// a transaction description.
type PatternType string

// Pattern type constants.
const (
	PatternExact      PatternType = "exact"
	PatternMerchant   PatternType = "merchant"
	PatternStartsWith PatternType = "starts_with"
	PatternContains   PatternType = "contains"
)

// ValidPatternType reports whether t is one of the known pattern types.
func ValidPatternType(t PatternType) bool {
	switch t {
	case PatternExact, PatternMerchant, PatternStartsWith, PatternContains:
		return true
	}
	return false
}

// LearnedPattern is a categorization pattern derived automatically from a
// manual user assignment. Repeat assignments of the same pattern increment
// UseCount instead of creating duplicates.
type LearnedPattern struct {
	CreatedAt    time.Time   `json:"created_at"`
	LastUsed     time.Time   `json:"last_used"`
	SessionID    string      `json:"session_id"`
	Category     string      `json:"category"`
	Merchant     string      `json:"merchant,omitempty"`
	PatternValue string      `json:"pattern_value"`
	PatternType  PatternType `json:"pattern_type"`
	ID           int64       `json:"id"`
	Confidence   float64     `json:"confidence_score"`
	UseCount     int         `json:"use_count"`
	Enabled      bool        `json:"enabled"`
}

// Validate ensures the pattern has valid data.
func (p *LearnedPattern) Validate() error {
	if !ValidPatternType(p.PatternType) {
		return fmt.Errorf("unknown pattern type %q", p.PatternType)
	}
	if p.PatternValue == "" {
		return fmt.Errorf("pattern value is required")
	}
	if p.Category == "" && p.Merchant == "" {
		return fmt.Errorf("pattern must assign a category or a merchant")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}
	return nil
}
