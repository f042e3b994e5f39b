package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Chrisie146/reconex/internal/common"
	"github.com/Chrisie146/reconex/internal/model"
)

func testPattern(sessionID, value string, typ model.PatternType, confidence float64) *model.LearnedPattern {
	return &model.LearnedPattern{
		SessionID:    sessionID,
		PatternType:  typ,
		PatternValue: value,
		Category:     "Groceries",
		Confidence:   confidence,
		Enabled:      true,
	}
}

func TestLearnedPatternStorage(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	t.Run("UpsertLearnedPattern starts at use count one", func(t *testing.T) {
		pat := testPattern("sess1", "WOOLWORTHS", model.PatternMerchant, 0.9)

		if err := store.UpsertLearnedPattern(ctx, pat); err != nil {
			t.Fatalf("UpsertLearnedPattern() error = %v", err)
		}
		if pat.ID == 0 {
			t.Error("UpsertLearnedPattern() did not set pattern ID")
		}
		if pat.UseCount != 1 {
			t.Errorf("use count = %d, want 1", pat.UseCount)
		}
	})

	t.Run("repeat upsert increments use count instead of duplicating", func(t *testing.T) {
		first := testPattern("sess1", "UBER", model.PatternContains, 0.7)
		if err := store.UpsertLearnedPattern(ctx, first); err != nil {
			t.Fatalf("UpsertLearnedPattern() error = %v", err)
		}

		// Same identity, different case.
		again := testPattern("sess1", "uber", model.PatternContains, 0.7)
		if err := store.UpsertLearnedPattern(ctx, again); err != nil {
			t.Fatalf("UpsertLearnedPattern() error = %v", err)
		}

		if again.ID != first.ID {
			t.Errorf("second upsert created id %d, want existing %d", again.ID, first.ID)
		}
		if again.UseCount != 2 {
			t.Errorf("use count = %d, want 2", again.UseCount)
		}
	})

	t.Run("same value in another session is a distinct pattern", func(t *testing.T) {
		other := testPattern("sess2", "WOOLWORTHS", model.PatternMerchant, 0.9)
		if err := store.UpsertLearnedPattern(ctx, other); err != nil {
			t.Fatalf("UpsertLearnedPattern() error = %v", err)
		}
		if other.UseCount != 1 {
			t.Errorf("use count = %d, want 1", other.UseCount)
		}
	})

	t.Run("ListLearnedPatterns orders by use count", func(t *testing.T) {
		// Bump UBER twice more so it outranks WOOLWORTHS in sess1.
		for i := 0; i < 2; i++ {
			pat := testPattern("sess1", "UBER", model.PatternContains, 0.7)
			if err := store.UpsertLearnedPattern(ctx, pat); err != nil {
				t.Fatalf("UpsertLearnedPattern() error = %v", err)
			}
		}

		patterns, err := store.ListLearnedPatterns(ctx, "sess1")
		if err != nil {
			t.Fatalf("ListLearnedPatterns() error = %v", err)
		}
		if len(patterns) != 2 {
			t.Fatalf("ListLearnedPatterns() returned %d patterns, want 2", len(patterns))
		}
		if patterns[0].PatternValue != "UBER" {
			t.Errorf("patterns[0].PatternValue = %q, want UBER", patterns[0].PatternValue)
		}
		if patterns[0].UseCount != 4 {
			t.Errorf("patterns[0].UseCount = %d, want 4", patterns[0].UseCount)
		}
	})

	t.Run("IncrementPatternUse bumps the counter", func(t *testing.T) {
		pat := testPattern("sess3", "TAKEALOT", model.PatternContains, 0.7)
		if err := store.UpsertLearnedPattern(ctx, pat); err != nil {
			t.Fatalf("UpsertLearnedPattern() error = %v", err)
		}

		if err := store.IncrementPatternUse(ctx, pat.ID); err != nil {
			t.Fatalf("IncrementPatternUse() error = %v", err)
		}

		got, err := store.GetLearnedPattern(ctx, pat.ID)
		if err != nil {
			t.Fatalf("GetLearnedPattern() error = %v", err)
		}
		if got.UseCount != 2 {
			t.Errorf("use count = %d, want 2", got.UseCount)
		}
	})

	t.Run("UpdateLearnedPattern changes category and enabled", func(t *testing.T) {
		pat := testPattern("sess3", "NETFLIX", model.PatternContains, 0.7)
		if err := store.UpsertLearnedPattern(ctx, pat); err != nil {
			t.Fatalf("UpsertLearnedPattern() error = %v", err)
		}

		if err := store.UpdateLearnedPattern(ctx, pat.ID, "Entertainment", false); err != nil {
			t.Fatalf("UpdateLearnedPattern() error = %v", err)
		}

		got, err := store.GetLearnedPattern(ctx, pat.ID)
		if err != nil {
			t.Fatalf("GetLearnedPattern() error = %v", err)
		}
		if got.Category != "Entertainment" {
			t.Errorf("category = %q, want Entertainment", got.Category)
		}
		if got.Enabled {
			t.Error("pattern still enabled after update")
		}
	})

	t.Run("DeleteLearnedPattern removes the pattern", func(t *testing.T) {
		pat := testPattern("sess3", "SPOTIFY", model.PatternContains, 0.7)
		if err := store.UpsertLearnedPattern(ctx, pat); err != nil {
			t.Fatalf("UpsertLearnedPattern() error = %v", err)
		}

		if err := store.DeleteLearnedPattern(ctx, pat.ID); err != nil {
			t.Fatalf("DeleteLearnedPattern() error = %v", err)
		}

		_, err := store.GetLearnedPattern(ctx, pat.ID)
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("GetLearnedPattern() after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("invalid pattern rejected as validation error", func(t *testing.T) {
		bad := testPattern("sess1", "", model.PatternExact, 0.5)

		err := store.UpsertLearnedPattern(ctx, bad)
		if !errors.Is(err, common.ErrValidation) {
			t.Errorf("UpsertLearnedPattern() error = %v, want ErrValidation", err)
		}
	})
}
