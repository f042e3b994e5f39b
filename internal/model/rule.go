package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ConditionField identifies the transaction field a condition tests.
type ConditionField string

// Condition field constants.
const (
	FieldDescription ConditionField = "description"
	FieldMerchant    ConditionField = "merchant"
	FieldAmount      ConditionField = "amount"
	FieldDate        ConditionField = "date"
)

// ConditionOperator identifies the comparison a condition performs.
type ConditionOperator string

// Condition operator constants.
const (
	OpContains ConditionOperator = "contains"
	OpEquals   ConditionOperator = "equals"
	OpRegex    ConditionOperator = "regex"
	OpGt       ConditionOperator = "gt"
	OpLt       ConditionOperator = "lt"
)

// RuleCondition is a single field comparison attached to a rule. All
// conditions on a rule must hold for the rule to match.
type RuleCondition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
}

// Validate checks the condition's operator/field combination and value.
// Regex patterns are compiled here so invalid patterns fail at save time
// rather than at match time.
func (c *RuleCondition) Validate() error {
	switch c.Field {
	case FieldDescription, FieldMerchant:
		switch c.Operator {
		case OpContains, OpEquals, OpRegex:
		default:
			return fmt.Errorf("%s field supports contains/equals/regex, got %q", c.Field, c.Operator)
		}
	case FieldAmount:
		switch c.Operator {
		case OpGt, OpLt, OpEquals:
		default:
			return fmt.Errorf("amount field supports gt/lt/equals, got %q", c.Operator)
		}
		if _, err := strconv.ParseFloat(c.Value, 64); err != nil {
			return fmt.Errorf("amount condition value %q is not numeric", c.Value)
		}
	case FieldDate:
		if c.Operator != OpEquals {
			return fmt.Errorf("date field supports equals only, got %q", c.Operator)
		}
		if _, err := time.Parse("2006-01-02", c.Value); err != nil {
			return fmt.Errorf("date condition value must be YYYY-MM-DD, got %q", c.Value)
		}
	default:
		return fmt.Errorf("unknown condition field %q", c.Field)
	}

	if c.Operator == OpRegex {
		if _, err := regexp.Compile(c.Value); err != nil {
			return fmt.Errorf("invalid regex %q: %w", c.Value, err)
		}
	}

	return nil
}

// Rule represents a user-authored categorization rule. Keywords are tested
// against the transaction description; lower priority values evaluate first.
type Rule struct {
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Name               string          `json:"name"`
	SessionID          string          `json:"session_id"`
	Category           string          `json:"category"`
	Keywords           []string        `json:"keywords"`
	Conditions         []RuleCondition `json:"conditions,omitempty"`
	ID                 int64           `json:"id"`
	Priority           int             `json:"priority"`
	Enabled            bool            `json:"enabled"`
	AutoApply          bool            `json:"auto_apply"`
	MatchCompoundWords bool            `json:"match_compound_words"`
}

// Validate ensures the rule is well formed before it is saved.
func (r *Rule) Validate() error {
	if len(strings.TrimSpace(r.Name)) < 2 {
		return fmt.Errorf("rule name must be at least 2 characters")
	}
	if r.Category == "" {
		return fmt.Errorf("rule category is required")
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("rule must have at least one keyword")
	}
	for _, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("rule keywords cannot be blank")
		}
	}
	if r.Priority < 0 {
		return fmt.Errorf("rule priority must be zero or positive")
	}
	for i := range r.Conditions {
		if err := r.Conditions[i].Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i+1, err)
		}
	}
	return nil
}
