package pattern

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "uppercases and collapses whitespace",
			input: "  pos   purchase woolworths ",
			want:  "POS PURCHASE WOOLWORTHS",
		},
		{
			name:  "already normalized",
			input: "WOOLWORTHS 123",
			want:  "WOOLWORTHS 123",
		},
		{
			name:  "tabs and newlines",
			input: "eft\tsalary\npayment",
			want:  "EFT SALARY PAYMENT",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "strips surrounding punctuation",
			input: "WOOLWORTHS, 123 (CAPE)",
			want:  []string{"WOOLWORTHS", "123", "CAPE"},
		},
		{
			name:  "drops punctuation-only tokens",
			input: "UBER *TRIP ***",
			want:  []string{"UBER", "TRIP"},
		},
		{
			name:  "keeps interior punctuation",
			input: "pay-roll co.za",
			want:  []string{"PAY-ROLL", "CO.ZA"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMerchantToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "skips stopwords and numbers",
			input: "POS PURCHASE WOOLWORTHS 123 CAPE TOWN",
			want:  "WOOLWORTHS",
		},
		{
			name:  "skips short tokens",
			input: "MR D FOOD DELIVERY",
			want:  "FOOD",
		},
		{
			name:  "no qualifying token",
			input: "EFT 123456",
			want:  "",
		},
		{
			name:  "stopword-only description",
			input: "DEBIT ORDER PAYMENT",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MerchantToken(tt.input); got != tt.want {
				t.Errorf("MerchantToken(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSalientKeyword(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "merchant token wins",
			input: "POS PURCHASE WOOLWORTHS 123 CAPE TOWN",
			want:  "WOOLWORTHS",
		},
		{
			name:  "falls back to first ten characters",
			input: "eft 12 9876543210",
			want:  "EFT 12 987",
		},
		{
			name:  "fallback trims trailing space",
			input: "EFT 12345 X",
			want:  "EFT 12345",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SalientKeyword(tt.input); got != tt.want {
				t.Errorf("SalientKeyword(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
