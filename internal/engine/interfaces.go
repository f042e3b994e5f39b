// Package engine implements the categorization engine: candidate
// resolution, bulk application with undo, and the learning feedback loop.
package engine

import (
	"context"

	"github.com/Chrisie146/reconex/internal/model"
	"github.com/Chrisie146/reconex/internal/storage"
)

// Storage defines the persistence contract the engine depends on.
type Storage interface {
	ListTransactions(ctx context.Context, sessionID string) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error

	ListActiveCandidates(ctx context.Context, sessionID string) (*storage.CandidateSet, error)
	UpsertLearnedPattern(ctx context.Context, pat *model.LearnedPattern) error
	IncrementPatternUse(ctx context.Context, id int64) error

	SaveSnapshot(ctx context.Context, snap *model.BulkSnapshot) error
	GetSnapshot(ctx context.Context, sessionID string) (*model.BulkSnapshot, error)
	DeleteSnapshot(ctx context.Context, sessionID string) error
}
