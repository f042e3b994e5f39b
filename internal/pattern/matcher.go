package pattern

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Chrisie146/reconex/internal/model"
)

// Matcher evaluates transactions against rules and learned patterns. It
// never mutates state; use-count bookkeeping belongs to the caller.
type Matcher struct {
	regexCache map[string]*regexp.Regexp
}

// NewMatcher creates a matcher with an empty regex cache.
func NewMatcher() *Matcher {
	return &Matcher{
		regexCache: make(map[string]*regexp.Regexp),
	}
}

// MatchRule evaluates a transaction against one user-authored rule. A rule
// matches when at least one keyword is found in the description and every
// condition holds. The returned result carries the literal matched fragment
// for UI display.
func (m *Matcher) MatchRule(txn model.Transaction, rule model.Rule) model.MatchResult {
	if !rule.Enabled {
		return model.NoMatch
	}

	fragment := ""
	for _, kw := range rule.Keywords {
		if frag, ok := findKeyword(txn.Description, kw, rule.MatchCompoundWords); ok {
			fragment = frag
			break
		}
	}
	if fragment == "" {
		return model.NoMatch
	}

	for _, cond := range rule.Conditions {
		if !m.matchesCondition(txn, cond, rule.MatchCompoundWords) {
			return model.NoMatch
		}
	}

	return model.MatchResult{
		Matched:  true,
		Source:   model.SourceRule,
		RuleID:   rule.ID,
		Category: rule.Category,
		Fragment: fragment,
	}
}

// MatchPattern evaluates a transaction against one learned pattern.
func (m *Matcher) MatchPattern(txn model.Transaction, pat model.LearnedPattern) model.MatchResult {
	if !pat.Enabled {
		return model.NoMatch
	}

	normalized := Normalize(txn.Description)
	value := Normalize(pat.PatternValue)
	if value == "" {
		return model.NoMatch
	}

	matched := false
	switch pat.PatternType {
	case model.PatternExact:
		matched = normalized == value
	case model.PatternMerchant:
		matched = MerchantToken(txn.Description) == value ||
			(txn.Merchant != "" && Normalize(txn.Merchant) == value)
	case model.PatternStartsWith:
		matched = strings.HasPrefix(normalized, value)
	case model.PatternContains:
		matched = strings.Contains(normalized, value)
	}

	if !matched {
		return model.NoMatch
	}

	return model.MatchResult{
		Matched:    true,
		Source:     model.SourcePattern,
		PatternID:  pat.ID,
		Category:   pat.Category,
		Merchant:   pat.Merchant,
		Confidence: pat.Confidence,
		Fragment:   value,
	}
}

// matchesCondition checks a single rule condition against the transaction.
// Invalid stored values fail the condition rather than erroring: conditions
// are validated at save time.
func (m *Matcher) matchesCondition(txn model.Transaction, cond model.RuleCondition, compound bool) bool {
	switch cond.Field {
	case model.FieldDescription:
		return m.matchesText(txn.Description, cond, compound)
	case model.FieldMerchant:
		return m.matchesText(txn.Merchant, cond, compound)
	case model.FieldAmount:
		value, err := strconv.ParseFloat(cond.Value, 64)
		if err != nil {
			return false
		}
		switch cond.Operator {
		case model.OpGt:
			return txn.Amount > value
		case model.OpLt:
			return txn.Amount < value
		case model.OpEquals:
			return txn.Amount == value
		}
		return false
	case model.FieldDate:
		return cond.Operator == model.OpEquals &&
			txn.Date.Format("2006-01-02") == cond.Value
	}
	return false
}

func (m *Matcher) matchesText(text string, cond model.RuleCondition, compound bool) bool {
	switch cond.Operator {
	case model.OpContains:
		_, ok := findKeyword(text, cond.Value, compound)
		return ok
	case model.OpEquals:
		return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(cond.Value))
	case model.OpRegex:
		re, ok := m.compiled(cond.Value)
		if !ok {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

// compiled returns a cached case-insensitive regex for the given source.
func (m *Matcher) compiled(source string) (*regexp.Regexp, bool) {
	if re, ok := m.regexCache[source]; ok {
		return re, re != nil
	}

	re, err := regexp.Compile("(?i)" + source)
	if err != nil {
		// Remember the failure so a bad pattern compiles only once.
		m.regexCache[source] = nil
		return nil, false
	}
	m.regexCache[source] = re
	return re, true
}

// findKeyword locates keyword inside text case-insensitively and returns
// the matched fragment in its original casing. When compound is false the
// match must fall on word boundaries, so "pay" does not match "payroll".
func findKeyword(text, keyword string, compound bool) (string, bool) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || text == "" {
		return "", false
	}

	lower := strings.ToLower(text)
	needle := strings.ToLower(keyword)

	from := 0
	for {
		idx := strings.Index(lower[from:], needle)
		if idx < 0 {
			return "", false
		}
		start := from + idx
		end := start + len(needle)

		if compound || isBoundary(lower, start, end) {
			return text[start:end], true
		}
		from = start + 1
	}
}

// isBoundary reports whether s[start:end] sits on word boundaries.
func isBoundary(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
