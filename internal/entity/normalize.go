package entity

import (
	"strings"
)

// legalSuffixes are stripped from company names as whole trailing tokens only.
// Short words that merely look like suffixes ("ACE") survive because stripping
// happens token-wise against this set, not by substring.
var legalSuffixes = map[string]bool{
	"llc":          true,
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"ltd":          true,
	"limited":      true,
	"lp":           true,
	"llp":          true,
	"pllc":         true,
	"pc":           true,
}

// NormalizeName converts a raw company name into its canonical comparison key.
// It is deterministic, total and idempotent: normalizing an already-normalized
// name is a no-op.
func NormalizeName(raw string) string {
	lowered := strings.ToLower(raw)

	// Collapse punctuation to spaces so "Acme, Inc." tokenizes cleanly.
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '&':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())

	// Strip trailing legal-entity suffixes, repeatedly, but never strip the
	// whole name down to nothing ("Limited Inc" keeps "limited").
	for len(tokens) > 1 && legalSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

// nameTokens splits a normalized name into its token set.
func nameTokens(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		set[tok] = true
	}
	return set
}
