// Package model defines the core data structures for the reconex application.
package model

import (
	"time"
)

// TransactionStatus indicates how a transaction acquired its category.
type TransactionStatus string

// Transaction status constants.
const (
	StatusUncategorised        TransactionStatus = "UNCATEGORISED"
	StatusCategorisedByRule    TransactionStatus = "CATEGORISED_BY_RULE"
	StatusCategorisedByPattern TransactionStatus = "CATEGORISED_BY_PATTERN"
	StatusUserModified         TransactionStatus = "USER_MODIFIED"
)

// Transaction represents a single statement line within an upload session.
// The external statement parser produces these; the categorization engine
// only ever mutates Category, Merchant, Description and Status.
type Transaction struct {
	Date        time.Time         `json:"date"`
	CreatedAt   time.Time         `json:"created_at"`
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	Description string            `json:"description"`
	Merchant    string            `json:"merchant,omitempty"`
	Category    string            `json:"category,omitempty"`
	Status      TransactionStatus `json:"status"`
	Amount      float64           `json:"amount"`
}

// Categorised reports whether the transaction already carries a category.
func (t *Transaction) Categorised() bool {
	return t.Category != ""
}
