package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Chrisie146/reconex/internal/common"
	"github.com/Chrisie146/reconex/internal/model"
)

// CreateRule creates a new user-authored rule.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	keywords, conditions, err := marshalRuleFields(rule)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (
			session_id, name, category, keywords, conditions,
			priority, enabled, auto_apply, match_compound_words
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.SessionID, rule.Name, rule.Category, keywords, conditions,
		rule.Priority, rule.Enabled, rule.AutoApply, rule.MatchCompoundWords,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	rule.ID = id
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	return nil
}

// GetRule retrieves a rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, name, category, keywords, conditions,
			priority, enabled, auto_apply, match_compound_words,
			created_at, updated_at
		FROM rules
		WHERE id = ?
	`, id)

	rule, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListRules returns all rules for a session ordered by priority ascending,
// then by creation order.
func (s *SQLiteStorage) ListRules(ctx context.Context, sessionID string) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, name, category, keywords, conditions,
			priority, enabled, auto_apply, match_compound_words,
			created_at, updated_at
		FROM rules
		WHERE session_id = ?
		ORDER BY priority ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// UpdateRule updates an existing rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	keywords, conditions, err := marshalRuleFields(rule)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rules SET
			name = ?, category = ?, keywords = ?, conditions = ?,
			priority = ?, enabled = ?, auto_apply = ?, match_compound_words = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		rule.Name, rule.Category, keywords, conditions,
		rule.Priority, rule.Enabled, rule.AutoApply, rule.MatchCompoundWords,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", rule.ID, common.ErrNotFound)
	}

	return nil
}

// SetRuleEnabled enables or disables a rule without touching its definition.
func (s *SQLiteStorage) SetRuleEnabled(ctx context.Context, id int64, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rules SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to set rule enabled: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// DeleteRule deletes a rule.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	return nil
}

func marshalRuleFields(rule *model.Rule) (keywords, conditions string, err error) {
	kw, err := json.Marshal(rule.Keywords)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal keywords: %w", err)
	}

	conds := rule.Conditions
	if conds == nil {
		conds = []model.RuleCondition{}
	}
	cd, err := json.Marshal(conds)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal conditions: %w", err)
	}

	return string(kw), string(cd), nil
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var rule model.Rule
	var keywords, conditions string
	if err := row.Scan(
		&rule.ID, &rule.SessionID, &rule.Name, &rule.Category, &keywords, &conditions,
		&rule.Priority, &rule.Enabled, &rule.AutoApply, &rule.MatchCompoundWords,
		&rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(keywords), &rule.Keywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}

	return &rule, nil
}
