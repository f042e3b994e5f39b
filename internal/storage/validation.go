package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Chrisie146/reconex/internal/common"
	"github.com/Chrisie146/reconex/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions. Failures are
// validation errors so the API layer maps them to 400s.
func validateTransactions(transactions []model.Transaction) error {
	if len(transactions) == 0 {
		return common.NewValidationError("at least one transaction is required")
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return common.NewValidationError("transaction ID is required")
	}
	if txn.SessionID == "" {
		return common.NewValidationError("transaction session ID is required")
	}
	if txn.Date.IsZero() {
		return common.NewValidationError("transaction date is required")
	}
	if txn.Description == "" {
		return common.NewValidationError("transaction description is required")
	}
	return nil
}

// validateRule validates a rule, wrapping model validation failures in the
// application's validation error so the API layer maps them to 400s.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if rule.SessionID == "" {
		return common.NewValidationError("rule session ID is required")
	}
	if err := rule.Validate(); err != nil {
		return common.NewUserError(err.Error(), common.ErrValidation)
	}
	return nil
}

// validatePattern validates a learned pattern.
func validatePattern(pat *model.LearnedPattern) error {
	if pat == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if pat.SessionID == "" {
		return common.NewValidationError("pattern session ID is required")
	}
	if err := pat.Validate(); err != nil {
		return common.NewUserError(err.Error(), common.ErrValidation)
	}
	return nil
}
