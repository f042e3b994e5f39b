package model

// MatchSource identifies which candidate source produced a match.
type MatchSource string

// Match source constants.
const (
	SourceRule    MatchSource = "rule"
	SourcePattern MatchSource = "pattern"
)

// MatchResult is the outcome of evaluating one transaction against one
// candidate, or against a full candidate list. The zero value means no
// match; a matched result carries exactly one decision, never a merge.
type MatchResult struct {
	Category   string      `json:"category,omitempty"`
	Merchant   string      `json:"merchant,omitempty"`
	Fragment   string      `json:"fragment,omitempty"`
	Source     MatchSource `json:"source,omitempty"`
	RuleID     int64       `json:"rule_id,omitempty"`
	PatternID  int64       `json:"pattern_id,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Matched    bool        `json:"matched"`
}

// NoMatch is the empty result returned when no candidate matches.
var NoMatch = MatchResult{}
