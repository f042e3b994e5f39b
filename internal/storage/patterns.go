package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Chrisie146/reconex/internal/common"
	"github.com/Chrisie146/reconex/internal/model"
)

// UpsertLearnedPattern creates a learned pattern, or increments the use
// count of an existing one with the same (session, type, value) identity.
// The identity comparison is case-insensitive.
func (s *SQLiteStorage) UpsertLearnedPattern(ctx context.Context, pat *model.LearnedPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(pat); err != nil {
		return err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, use_count FROM learned_patterns
		WHERE session_id = ? AND pattern_type = ? AND pattern_value = ? COLLATE NOCASE
	`, pat.SessionID, pat.PatternType, pat.PatternValue)

	var existingID int64
	var useCount int
	err := row.Scan(&existingID, &useCount)
	switch {
	case err == sql.ErrNoRows:
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO learned_patterns
				(session_id, category, merchant, pattern_type, pattern_value, confidence, use_count, enabled)
			VALUES (?, ?, ?, ?, ?, ?, 1, 1)
		`, pat.SessionID, pat.Category, pat.Merchant, pat.PatternType, pat.PatternValue, pat.Confidence)
		if err != nil {
			return fmt.Errorf("failed to create learned pattern: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get pattern ID: %w", err)
		}
		pat.ID = id
		pat.UseCount = 1
		pat.Enabled = true
		pat.CreatedAt = time.Now()
		pat.LastUsed = time.Now()
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up learned pattern: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns
		SET category = ?, merchant = ?, confidence = ?,
			use_count = use_count + 1, last_used = CURRENT_TIMESTAMP
		WHERE id = ?
	`, pat.Category, pat.Merchant, pat.Confidence, existingID); err != nil {
		return fmt.Errorf("failed to update learned pattern: %w", err)
	}

	pat.ID = existingID
	pat.UseCount = useCount + 1
	pat.LastUsed = time.Now()

	return nil
}

func scanPattern(row rowScanner) (*model.LearnedPattern, error) {
	var pat model.LearnedPattern
	if err := row.Scan(
		&pat.ID, &pat.SessionID, &pat.Category, &pat.Merchant,
		&pat.PatternType, &pat.PatternValue,
		&pat.Confidence, &pat.UseCount, &pat.Enabled,
		&pat.CreatedAt, &pat.LastUsed,
	); err != nil {
		return nil, err
	}
	return &pat, nil
}

// ListLearnedPatterns returns all learned patterns for a session, most used
// first.
func (s *SQLiteStorage) ListLearnedPatterns(ctx context.Context, sessionID string) ([]model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, category, merchant, pattern_type, pattern_value,
			confidence, use_count, enabled, created_at, last_used
		FROM learned_patterns
		WHERE session_id = ?
		ORDER BY use_count DESC, confidence DESC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list learned patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.LearnedPattern
	for rows.Next() {
		pat, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learned pattern: %w", err)
		}
		patterns = append(patterns, *pat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learned patterns: %w", err)
	}

	return patterns, nil
}

// GetLearnedPattern retrieves a learned pattern by ID.
func (s *SQLiteStorage) GetLearnedPattern(ctx context.Context, id int64) (*model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, category, merchant, pattern_type, pattern_value,
			confidence, use_count, enabled, created_at, last_used
		FROM learned_patterns
		WHERE id = ?
	`, id)

	pat, err := scanPattern(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("learned pattern %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get learned pattern: %w", err)
	}
	return pat, nil
}

// UpdateLearnedPattern updates a pattern's category and enabled flag.
func (s *SQLiteStorage) UpdateLearnedPattern(ctx context.Context, id int64, category string, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns SET category = ?, enabled = ? WHERE id = ?
	`, category, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update learned pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("learned pattern %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// DeleteLearnedPattern deletes a learned pattern.
func (s *SQLiteStorage) DeleteLearnedPattern(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM learned_patterns WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete learned pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("learned pattern %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// IncrementPatternUse increments the use count for a pattern after it was
// matched and applied.
func (s *SQLiteStorage) IncrementPatternUse(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns
		SET use_count = use_count + 1, last_used = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment pattern use count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("learned pattern %d: %w", id, common.ErrNotFound)
	}

	return nil
}
