// Package recon matches invoices against statement transactions for
// balance reconciliation.
package recon

import (
	"math"
	"sort"
	"time"

	"github.com/Chrisie146/reconex/internal/model"
	"github.com/Chrisie146/reconex/internal/pattern"
)

// maxDateGapDays is how far apart an invoice date and a transaction date
// may be for the pair to count as a candidate.
const maxDateGapDays = 7

// minScore is the lowest combined score accepted as a match.
const minScore = 0.5

// Invoice is an externally supplied invoice to reconcile.
type Invoice struct {
	Date      time.Time `json:"date"`
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Vendor    string    `json:"vendor,omitempty"`
	Amount    float64   `json:"amount"`
}

// Match pairs one invoice with one transaction.
type Match struct {
	InvoiceID     string  `json:"invoice_id"`
	TransactionID string  `json:"transaction_id"`
	Score         float64 `json:"score"`
}

// Result is the outcome of a reconciliation pass.
type Result struct {
	Matches           []Match  `json:"matches"`
	UnmatchedInvoices []string `json:"unmatched_invoices"`
	UnmatchedTxns     []string `json:"unmatched_transactions"`
}

// MatchInvoices greedily pairs invoices with transactions, best score
// first. An invoice and a transaction are candidates when their amounts
// match exactly and their dates are within a week; the description
// similarity against the invoice reference and vendor decides the score.
func MatchInvoices(invoices []Invoice, txns []model.Transaction) Result {
	type candidate struct {
		invoice int
		txn     int
		score   float64
	}
	var candidates []candidate

	for i, inv := range invoices {
		for j, txn := range txns {
			if !amountsEqual(inv.Amount, txn.Amount) {
				continue
			}
			if daysApart(inv.Date, txn.Date) > maxDateGapDays {
				continue
			}

			score := pattern.Similarity(txn.Description, inv.Reference)
			if inv.Vendor != "" {
				if s := pattern.Similarity(txn.Description, inv.Vendor); s > score {
					score = s
				}
			}
			if score < minScore {
				continue
			}
			candidates = append(candidates, candidate{invoice: i, txn: j, score: score})
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		if candidates[a].invoice != candidates[b].invoice {
			return candidates[a].invoice < candidates[b].invoice
		}
		return candidates[a].txn < candidates[b].txn
	})

	usedInvoices := make(map[int]struct{})
	usedTxns := make(map[int]struct{})

	var result Result
	for _, c := range candidates {
		if _, ok := usedInvoices[c.invoice]; ok {
			continue
		}
		if _, ok := usedTxns[c.txn]; ok {
			continue
		}
		usedInvoices[c.invoice] = struct{}{}
		usedTxns[c.txn] = struct{}{}
		result.Matches = append(result.Matches, Match{
			InvoiceID:     invoices[c.invoice].ID,
			TransactionID: txns[c.txn].ID,
			Score:         c.score,
		})
	}

	for i, inv := range invoices {
		if _, ok := usedInvoices[i]; !ok {
			result.UnmatchedInvoices = append(result.UnmatchedInvoices, inv.ID)
		}
	}
	for j, txn := range txns {
		if _, ok := usedTxns[j]; !ok {
			result.UnmatchedTxns = append(result.UnmatchedTxns, txn.ID)
		}
	}

	return result
}

func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
