package storage

import (
	"context"
	"fmt"

	"github.com/Chrisie146/reconex/internal/model"
)

// CandidateSet is the ordered evaluation input for the rule engine:
// enabled rules in priority order first, then enabled learned patterns
// ranked by use count.
type CandidateSet struct {
	Rules    []model.Rule
	Patterns []model.LearnedPattern
}

// ListActiveCandidates loads the enabled rules and patterns for a session
// in evaluation order. Rules come back sorted by priority ascending with
// creation order (id) breaking ties; patterns by use count descending, then
// confidence, then id.
func (s *SQLiteStorage) ListActiveCandidates(ctx context.Context, sessionID string) (*CandidateSet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rules, err := s.ListRules(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate rules: %w", err)
	}

	patterns, err := s.ListLearnedPatterns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate patterns: %w", err)
	}

	set := &CandidateSet{}
	for _, r := range rules {
		if r.Enabled {
			set.Rules = append(set.Rules, r)
		}
	}
	for _, p := range patterns {
		if p.Enabled {
			set.Patterns = append(set.Patterns, p)
		}
	}

	return set, nil
}
