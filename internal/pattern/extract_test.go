package pattern

import (
	"testing"

	"github.com/Chrisie146/reconex/internal/model"
)

func TestExtract(t *testing.T) {
	t.Run("full description yields all four pattern types", func(t *testing.T) {
		candidates := Extract("POS Purchase WOOLWORTHS 123 Cape Town", "Groceries", "Woolworths", "")

		if len(candidates) != 4 {
			t.Fatalf("Extract() returned %d candidates, want 4", len(candidates))
		}

		want := []struct {
			typ        model.PatternType
			value      string
			confidence float64
		}{
			{model.PatternExact, "POS PURCHASE WOOLWORTHS 123 CAPE TOWN", 1.0},
			{model.PatternMerchant, "WOOLWORTHS", 0.9},
			{model.PatternStartsWith, "POS PURCHASE", 0.8},
			{model.PatternContains, "WOOLWORTHS", 0.7},
		}

		for i, w := range want {
			got := candidates[i]
			if got.Type != w.typ {
				t.Errorf("candidate[%d].Type = %v, want %v", i, got.Type, w.typ)
			}
			if got.Value != w.value {
				t.Errorf("candidate[%d].Value = %q, want %q", i, got.Value, w.value)
			}
			if got.Confidence != w.confidence {
				t.Errorf("candidate[%d].Confidence = %v, want %v", i, got.Confidence, w.confidence)
			}
			if got.Category != "Groceries" {
				t.Errorf("candidate[%d].Category = %q, want Groceries", i, got.Category)
			}
			if got.Merchant != "Woolworths" {
				t.Errorf("candidate[%d].Merchant = %q, want Woolworths", i, got.Merchant)
			}
		}
	})

	t.Run("explicit keyword overrides salient selection", func(t *testing.T) {
		candidates := Extract("POS PURCHASE WOOLWORTHS 123 CAPE TOWN", "Groceries", "", "cape")

		var contains *Candidate
		for i := range candidates {
			if candidates[i].Type == model.PatternContains {
				contains = &candidates[i]
			}
		}

		if contains == nil {
			t.Fatal("Extract() produced no contains candidate")
		}
		if contains.Value != "CAPE" {
			t.Errorf("contains value = %q, want CAPE", contains.Value)
		}
	})

	t.Run("single token skips starts_with and duplicate contains", func(t *testing.T) {
		candidates := Extract("WOOLWORTHS", "Groceries", "", "")

		if len(candidates) != 2 {
			t.Fatalf("Extract() returned %d candidates, want 2", len(candidates))
		}
		if candidates[0].Type != model.PatternExact {
			t.Errorf("candidate[0].Type = %v, want exact", candidates[0].Type)
		}
		if candidates[1].Type != model.PatternMerchant {
			t.Errorf("candidate[1].Type = %v, want merchant", candidates[1].Type)
		}
	})

	t.Run("two tokens has no starts_with candidate", func(t *testing.T) {
		candidates := Extract("UBER TRIP", "Transport", "", "")

		for _, c := range candidates {
			if c.Type == model.PatternStartsWith {
				t.Errorf("unexpected starts_with candidate %q for two-token description", c.Value)
			}
		}
	})

	t.Run("empty description yields nothing", func(t *testing.T) {
		if candidates := Extract("  ", "Groceries", "", ""); candidates != nil {
			t.Errorf("Extract() = %v, want nil", candidates)
		}
	})

	t.Run("numeric-only description falls back to prefix keyword", func(t *testing.T) {
		candidates := Extract("1234567890123", "Fees", "", "")

		var contains *Candidate
		for i := range candidates {
			if candidates[i].Type == model.PatternContains {
				contains = &candidates[i]
			}
		}

		if contains == nil {
			t.Fatal("Extract() produced no contains candidate")
		}
		if contains.Value != "1234567890" {
			t.Errorf("contains value = %q, want 1234567890", contains.Value)
		}
	})
}
