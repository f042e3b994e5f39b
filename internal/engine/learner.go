package engine

import (
	"context"
	"log/slog"

	"github.com/Chrisie146/reconex/internal/model"
	"github.com/Chrisie146/reconex/internal/pattern"
)

// Learner wires manual category and merchant assignments back into the
// pattern store so future uploads benefit. Learning is best-effort:
// failures are logged and swallowed, never returned to the edit path that
// triggered them.
type Learner struct {
	storage Storage
}

// NewLearner creates a learner.
func NewLearner(store Storage) *Learner {
	return &Learner{storage: store}
}

// Learn extracts candidate patterns from a categorized transaction and
// upserts each into the pattern store. keyword, when non-empty, overrides
// the salient-keyword selection for the contains pattern.
func (l *Learner) Learn(ctx context.Context, txn model.Transaction, category, merchant, keyword string) {
	candidates := pattern.Extract(txn.Description, category, merchant, keyword)
	if len(candidates) == 0 {
		return
	}

	for _, c := range candidates {
		pat := &model.LearnedPattern{
			SessionID:    txn.SessionID,
			Category:     c.Category,
			Merchant:     c.Merchant,
			PatternType:  c.Type,
			PatternValue: c.Value,
			Confidence:   c.Confidence,
			Enabled:      true,
		}
		if err := l.storage.UpsertLearnedPattern(ctx, pat); err != nil {
			slog.Warn("pattern learning failed",
				"session_id", txn.SessionID,
				"pattern_type", c.Type,
				"pattern_value", c.Value,
				"error", err)
		}
	}
}

// LearnKeyword records a single contains-type pattern from an explicit
// apply-to-similar keyword. Best-effort, like Learn.
func (l *Learner) LearnKeyword(ctx context.Context, sessionID, keyword, category, merchant string) {
	value := pattern.Normalize(keyword)
	if value == "" {
		return
	}

	pat := &model.LearnedPattern{
		SessionID:    sessionID,
		Category:     category,
		Merchant:     merchant,
		PatternType:  model.PatternContains,
		PatternValue: value,
		Confidence:   0.7,
		Enabled:      true,
	}
	if err := l.storage.UpsertLearnedPattern(ctx, pat); err != nil {
		slog.Warn("keyword learning failed",
			"session_id", sessionID,
			"pattern_value", value,
			"error", err)
	}
}
