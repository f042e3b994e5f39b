// Package report builds spending summaries over a session's transactions.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Chrisie146/reconex/internal/model"
)

// UncategorisedBucket is the summary bucket for transactions without a
// category or merchant.
const UncategorisedBucket = "Uncategorised"

// Line is one aggregated row of a summary.
type Line struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Summary aggregates a session's transactions by category and by merchant.
// Money math uses decimals so totals do not drift with float rounding.
type Summary struct {
	ByCategory []Line          `json:"by_category"`
	ByMerchant []Line          `json:"by_merchant"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

// Build computes the summary for a set of transactions. Lines are ordered
// by absolute total descending so the biggest buckets come first.
func Build(txns []model.Transaction) Summary {
	byCategory := make(map[string]*Line)
	byMerchant := make(map[string]*Line)
	total := decimal.Zero

	for _, txn := range txns {
		amount := decimal.NewFromFloat(txn.Amount)
		total = total.Add(amount)

		category := txn.Category
		if category == "" {
			category = UncategorisedBucket
		}
		accumulate(byCategory, category, amount)

		merchant := txn.Merchant
		if merchant == "" {
			merchant = UncategorisedBucket
		}
		accumulate(byMerchant, merchant, amount)
	}

	return Summary{
		ByCategory: sortLines(byCategory),
		ByMerchant: sortLines(byMerchant),
		Total:      total,
		Count:      len(txns),
	}
}

func accumulate(m map[string]*Line, name string, amount decimal.Decimal) {
	line, ok := m[name]
	if !ok {
		line = &Line{Name: name}
		m[name] = line
	}
	line.Total = line.Total.Add(amount)
	line.Count++
}

func sortLines(m map[string]*Line) []Line {
	lines := make([]Line, 0, len(m))
	for _, line := range m {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i].Total.Abs(), lines[j].Total.Abs()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return lines[i].Name < lines[j].Name
	})
	return lines
}
