package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Chrisie146/reconex/internal/common"
	"github.com/Chrisie146/reconex/internal/model"
)

// SaveSnapshot stores the undo record for a session, replacing any pending
// snapshot. A session holds at most one undo level.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap *model.BulkSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	if err := validateString(snap.SessionID, "sessionID"); err != nil {
		return err
	}

	entries, err := json.Marshal(snap.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot entries: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bulk_snapshots (session_id, entries, created_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			entries = excluded.entries,
			created_at = CURRENT_TIMESTAMP
	`, snap.SessionID, string(entries)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves the pending undo snapshot for a session.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, sessionID string) (*model.BulkSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	var snap model.BulkSnapshot
	var entries string
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, entries, created_at
		FROM bulk_snapshots
		WHERE session_id = ?
	`, sessionID).Scan(&snap.SessionID, &entries, &snap.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, common.ErrNoPendingUndo
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(entries), &snap.Entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot entries: %w", err)
	}

	return &snap, nil
}

// DeleteSnapshot discards a session's pending undo snapshot. Deleting a
// snapshot that does not exist is not an error.
func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM bulk_snapshots WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}
