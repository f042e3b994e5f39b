package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Chrisie146/reconex/internal/model"
	"github.com/Chrisie146/reconex/internal/storage"
)

// ApplyOptions controls which transactions a bulk operation may touch.
type ApplyOptions struct {
	// OnlyUncategorised skips transactions that already carry a non-empty
	// category (or merchant, for merchant operations).
	OnlyUncategorised bool
}

// ApplyResult reports the outcome of a bulk operation. Per-transaction
// failures do not roll back the rest of the batch; they surface as a
// count lower than the match count.
type ApplyResult struct {
	UpdatedIDs   []string `json:"updated_ids"`
	UpdatedCount int      `json:"updated_count"`
}

// BulkApplier applies categorization decisions across a session's
// transactions, recording a single-level undo snapshot per session.
// A per-session mutex serializes bulk apply and undo so two browser tabs
// cannot race each other into a lost update.
type BulkApplier struct {
	storage  Storage
	resolver *Resolver
	locks    sync.Map // sessionID -> *sync.Mutex
}

// NewBulkApplier creates a bulk applier.
func NewBulkApplier(store Storage, resolver *Resolver) *BulkApplier {
	return &BulkApplier{
		storage:  store,
		resolver: resolver,
	}
}

func (b *BulkApplier) sessionLock(sessionID string) *sync.Mutex {
	mu, _ := b.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// AutoApply runs every auto-apply-eligible rule and every enabled learned
// pattern over a session. Used on statement upload and on explicit
// apply-bulk requests.
func (b *BulkApplier) AutoApply(ctx context.Context, sessionID string, opts ApplyOptions) (*ApplyResult, error) {
	set, err := b.storage.ListActiveCandidates(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	return b.applyResolved(ctx, sessionID, set, ResolveOptions{AutoApplyOnly: true}, opts)
}

// ApplyRule runs a single rule over a session regardless of its auto-apply
// flag.
func (b *BulkApplier) ApplyRule(ctx context.Context, sessionID string, rule model.Rule, opts ApplyOptions) (*ApplyResult, error) {
	set := &storage.CandidateSet{Rules: []model.Rule{rule}}
	return b.applyResolved(ctx, sessionID, set, ResolveOptions{}, opts)
}

// ApplyPatterns runs only the learned patterns over a session.
func (b *BulkApplier) ApplyPatterns(ctx context.Context, sessionID string, opts ApplyOptions) (*ApplyResult, error) {
	set, err := b.storage.ListActiveCandidates(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	set.Rules = nil
	return b.applyResolved(ctx, sessionID, set, ResolveOptions{}, opts)
}

// applyResolved resolves each transaction against the candidate set and
// applies winning decisions. Transactions are processed in ascending id
// order so repeated runs over unchanged data are identical.
func (b *BulkApplier) applyResolved(ctx context.Context, sessionID string, set *storage.CandidateSet, ropts ResolveOptions, opts ApplyOptions) (*ApplyResult, error) {
	mu := b.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	txns, err := b.storage.ListTransactions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	type change struct {
		txn    model.Transaction
		result model.MatchResult
	}
	var changes []change

	for _, txn := range txns {
		result := b.resolver.Resolve(txn, set, ropts)
		if !result.Matched || (result.Category == "" && result.Merchant == "") {
			continue
		}
		if opts.OnlyUncategorised {
			// Merchant-only patterns are skipped on an existing merchant,
			// not an existing category.
			if result.Category != "" && txn.Categorised() {
				continue
			}
			if result.Category == "" && txn.Merchant != "" {
				continue
			}
		}
		sameCategory := result.Category == "" || txn.Category == result.Category
		sameMerchant := result.Merchant == "" || txn.Merchant == result.Merchant
		if sameCategory && sameMerchant {
			continue
		}
		changes = append(changes, change{txn: txn, result: result})
	}

	if len(changes) == 0 {
		return &ApplyResult{}, nil
	}

	snap := &model.BulkSnapshot{
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
	for _, c := range changes {
		snap.Entries = append(snap.Entries, model.SnapshotEntry{
			TransactionID: c.txn.ID,
			PrevCategory:  c.txn.Category,
			PrevMerchant:  c.txn.Merchant,
			PrevStatus:    c.txn.Status,
		})
	}
	if err := b.storage.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save undo snapshot: %w", err)
	}

	result := &ApplyResult{}
	for _, c := range changes {
		txn := c.txn
		if c.result.Category != "" {
			txn.Category = c.result.Category
		}
		if c.result.Merchant != "" {
			txn.Merchant = c.result.Merchant
		}
		// A merchant-only assignment leaves the category provenance alone.
		if c.result.Category != "" {
			switch c.result.Source {
			case model.SourcePattern:
				txn.Status = model.StatusCategorisedByPattern
			default:
				txn.Status = model.StatusCategorisedByRule
			}
		}

		if err := b.storage.UpdateTransaction(ctx, &txn); err != nil {
			slog.Warn("bulk apply skipped transaction",
				"transaction_id", txn.ID, "error", err)
			continue
		}

		if c.result.Source == model.SourcePattern {
			if err := b.storage.IncrementPatternUse(ctx, c.result.PatternID); err != nil {
				slog.Warn("failed to increment pattern use count",
					"pattern_id", c.result.PatternID, "error", err)
			}
		}

		result.UpdatedIDs = append(result.UpdatedIDs, txn.ID)
		result.UpdatedCount++
	}

	return result, nil
}

// ApplyKeyword assigns a category to every transaction whose description
// contains the keyword. Raw substring matching is used here: bulk keyword
// actions are explicit user requests, not rule evaluations.
func (b *BulkApplier) ApplyKeyword(ctx context.Context, sessionID, keyword, category string, opts ApplyOptions) (*ApplyResult, error) {
	rule := model.Rule{
		Name:               "bulk categorise",
		Category:           category,
		Keywords:           []string{keyword},
		Enabled:            true,
		MatchCompoundWords: true,
	}
	return b.applyManual(ctx, sessionID, opts, func(txn model.Transaction) (string, string, bool) {
		if result := b.resolver.matcher.MatchRule(txn, rule); result.Matched {
			return category, "", true
		}
		return "", "", false
	}, false)
}

// ApplyIDs assigns a category to an explicit set of transaction ids.
func (b *BulkApplier) ApplyIDs(ctx context.Context, sessionID string, ids []string, category string) (*ApplyResult, error) {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	return b.applyManual(ctx, sessionID, ApplyOptions{}, func(txn model.Transaction) (string, string, bool) {
		if _, ok := idSet[txn.ID]; ok {
			return category, "", true
		}
		return "", "", false
	}, false)
}

// ApplyMerchantKeyword assigns a merchant to every transaction whose
// description contains the keyword.
func (b *BulkApplier) ApplyMerchantKeyword(ctx context.Context, sessionID, keyword, merchant string, opts ApplyOptions) (*ApplyResult, error) {
	rule := model.Rule{
		Name:               "bulk merchant",
		Category:           merchant,
		Keywords:           []string{keyword},
		Enabled:            true,
		MatchCompoundWords: true,
	}
	return b.applyManual(ctx, sessionID, opts, func(txn model.Transaction) (string, string, bool) {
		if result := b.resolver.matcher.MatchRule(txn, rule); result.Matched {
			return "", merchant, true
		}
		return "", "", false
	}, true)
}

// ApplyMerchantIDs assigns a merchant to an explicit set of transaction ids.
func (b *BulkApplier) ApplyMerchantIDs(ctx context.Context, sessionID string, ids []string, merchant string) (*ApplyResult, error) {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	return b.applyManual(ctx, sessionID, ApplyOptions{}, func(txn model.Transaction) (string, string, bool) {
		if _, ok := idSet[txn.ID]; ok {
			return "", merchant, true
		}
		return "", "", false
	}, true)
}

// applyManual is the shared path for user-initiated bulk edits. decide
// returns the category and/or merchant to assign for a transaction.
func (b *BulkApplier) applyManual(ctx context.Context, sessionID string, opts ApplyOptions, decide func(model.Transaction) (category, merchant string, ok bool), merchantOp bool) (*ApplyResult, error) {
	mu := b.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	txns, err := b.storage.ListTransactions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	type change struct {
		txn      model.Transaction
		category string
		merchant string
	}
	var changes []change

	for _, txn := range txns {
		if opts.OnlyUncategorised {
			if merchantOp && txn.Merchant != "" {
				continue
			}
			if !merchantOp && txn.Categorised() {
				continue
			}
		}

		category, merchant, ok := decide(txn)
		if !ok {
			continue
		}
		if category != "" && txn.Category == category {
			continue
		}
		if merchant != "" && category == "" && txn.Merchant == merchant {
			continue
		}
		changes = append(changes, change{txn: txn, category: category, merchant: merchant})
	}

	if len(changes) == 0 {
		return &ApplyResult{}, nil
	}

	snap := &model.BulkSnapshot{
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
	for _, c := range changes {
		snap.Entries = append(snap.Entries, model.SnapshotEntry{
			TransactionID: c.txn.ID,
			PrevCategory:  c.txn.Category,
			PrevMerchant:  c.txn.Merchant,
			PrevStatus:    c.txn.Status,
		})
	}
	if err := b.storage.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save undo snapshot: %w", err)
	}

	result := &ApplyResult{}
	for _, c := range changes {
		txn := c.txn
		if c.category != "" {
			txn.Category = c.category
		}
		if c.merchant != "" {
			txn.Merchant = c.merchant
		}
		txn.Status = model.StatusUserModified

		if err := b.storage.UpdateTransaction(ctx, &txn); err != nil {
			slog.Warn("bulk apply skipped transaction",
				"transaction_id", txn.ID, "error", err)
			continue
		}

		result.UpdatedIDs = append(result.UpdatedIDs, txn.ID)
		result.UpdatedCount++
	}

	return result, nil
}

// Undo restores the state captured by the most recent bulk operation, then
// discards the snapshot. Exactly one undo level exists: a second call
// returns ErrNoPendingUndo.
func (b *BulkApplier) Undo(ctx context.Context, sessionID string) (*ApplyResult, error) {
	mu := b.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	snap, err := b.storage.GetSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{}
	for _, entry := range snap.Entries {
		txn, err := b.storage.GetTransaction(ctx, entry.TransactionID)
		if err != nil {
			slog.Warn("undo skipped missing transaction",
				"transaction_id", entry.TransactionID, "error", err)
			continue
		}

		txn.Category = entry.PrevCategory
		txn.Merchant = entry.PrevMerchant
		txn.Status = entry.PrevStatus

		if err := b.storage.UpdateTransaction(ctx, txn); err != nil {
			slog.Warn("undo failed for transaction",
				"transaction_id", entry.TransactionID, "error", err)
			continue
		}

		result.UpdatedIDs = append(result.UpdatedIDs, txn.ID)
		result.UpdatedCount++
	}

	if err := b.storage.DeleteSnapshot(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to discard undo snapshot: %w", err)
	}

	return result, nil
}
