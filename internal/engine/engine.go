package engine

import (
	"github.com/Chrisie146/reconex/internal/model"
	"github.com/Chrisie146/reconex/internal/pattern"
	"github.com/Chrisie146/reconex/internal/storage"
)

// Resolver decides the winning category or merchant assignment for a
// transaction. Resolution is first-match-wins over an ordered candidate
// list, so every decision traces back to exactly one rule or pattern and
// the UI can always show a single matched-by fragment.
type Resolver struct {
	matcher *pattern.Matcher
}

// NewResolver creates a resolver with a fresh matcher.
func NewResolver() *Resolver {
	return &Resolver{matcher: pattern.NewMatcher()}
}

// ResolveOptions narrows which candidates participate in a resolution pass.
type ResolveOptions struct {
	// AutoApplyOnly restricts explicit rules to those flagged auto_apply.
	// Learned patterns always participate in auto-apply runs.
	AutoApplyOnly bool
}

// Resolve evaluates a transaction against the candidate set and returns
// the first match in evaluation order: explicit rules by priority
// ascending (creation order breaking ties), then learned patterns by use
// count. Lower-priority matches are deliberately dropped, never merged.
func (r *Resolver) Resolve(txn model.Transaction, set *storage.CandidateSet, opts ResolveOptions) model.MatchResult {
	for _, rule := range set.Rules {
		if opts.AutoApplyOnly && !rule.AutoApply {
			continue
		}
		if result := r.matcher.MatchRule(txn, rule); result.Matched {
			return result
		}
	}

	for _, pat := range set.Patterns {
		if result := r.matcher.MatchPattern(txn, pat); result.Matched {
			return result
		}
	}

	return model.NoMatch
}

// PreviewResult reports which transactions a rule would affect, without
// mutating anything.
type PreviewResult struct {
	MatchedIDs []string            `json:"matched"`
	Matches    []model.MatchResult `json:"match_details,omitempty"`
	Count      int                 `json:"count"`
	Percentage float64             `json:"percentage"`
}

// Preview evaluates a single rule against a set of transactions.
func (r *Resolver) Preview(txns []model.Transaction, rule model.Rule) PreviewResult {
	result := PreviewResult{}
	for _, txn := range txns {
		if match := r.matcher.MatchRule(txn, rule); match.Matched {
			result.MatchedIDs = append(result.MatchedIDs, txn.ID)
			result.Matches = append(result.Matches, match)
		}
	}

	result.Count = len(result.MatchedIDs)
	if len(txns) > 0 {
		result.Percentage = float64(result.Count) / float64(len(txns)) * 100
	}
	return result
}
