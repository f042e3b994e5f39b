// Package pattern implements description normalization, pattern extraction
// and rule/pattern matching for transaction categorization.
package pattern

import (
	"strings"
	"unicode"
)

// stoplist holds tokens that never qualify as a salient keyword or merchant
// token. Bank noise words dominate statement descriptions and carry no
// categorization signal.
var stoplist = map[string]struct{}{
	"THE": {}, "A": {}, "AN": {}, "OF": {}, "TO": {}, "FOR": {}, "AND": {},
	"DEPOSIT":   {},
	"PAYMENT":   {},
	"TRANSFER":  {},
	"POS":       {},
	"PURCHASE":  {},
	"DEBICHECK": {},
	"DEBIT":     {},
	"ORDER":     {},
	"EFT":       {},
}

// Normalize uppercases a description and collapses runs of whitespace so
// that equality and prefix tests are stable across statement formats.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// Tokenize splits a description into uppercased tokens with surrounding
// punctuation stripped. Tokens that are empty after stripping are dropped.
func Tokenize(s string) []string {
	fields := strings.Fields(strings.ToUpper(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// MerchantToken extracts the merchant token from a description: the first
// token that is not a stopword, not purely numeric, and at least 3
// characters long. Returns "" when no token qualifies.
func MerchantToken(description string) string {
	for _, tok := range Tokenize(description) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stoplist[tok]; stop {
			continue
		}
		if isNumeric(tok) {
			continue
		}
		return tok
	}
	return ""
}

// SalientKeyword selects the single keyword used for contains-type patterns.
// The policy is identical for the learning loop and for manual
// apply-to-similar actions: first qualifying token, else the first 10
// characters of the raw description, uppercased.
func SalientKeyword(description string) string {
	if tok := MerchantToken(description); tok != "" {
		return tok
	}

	raw := strings.TrimSpace(strings.ToUpper(description))
	if len(raw) > 10 {
		raw = strings.TrimSpace(raw[:10])
	}
	return raw
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
