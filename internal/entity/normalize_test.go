package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and strips llc",
			input:    "Acme Logistics LLC",
			expected: "acme logistics",
		},
		{
			name:     "strips punctuation and inc",
			input:    "Acme, Inc.",
			expected: "acme",
		},
		{
			name:     "strips stacked suffixes",
			input:    "Baker Freight Co Ltd",
			expected: "baker freight",
		},
		{
			name:     "keeps ampersand",
			input:    "Smith & Sons Trucking",
			expected: "smith & sons trucking",
		},
		{
			name:     "suffix word inside name survives",
			input:    "Limited Run Games",
			expected: "limited run games",
		},
		{
			name:     "never strips to nothing",
			input:    "Limited Inc",
			expected: "limited",
		},
		{
			name:     "collapses whitespace",
			input:    "  Acme   Logistics  ",
			expected: "acme logistics",
		},
		{
			name:     "digits kept",
			input:    "Route 66 Carriers LLC",
			expected: "route 66 carriers",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"Acme Logistics LLC",
		"Smith & Sons Trucking, Inc.",
		"Route 66 Carriers",
	}
	for _, input := range inputs {
		once := NormalizeName(input)
		assert.Equal(t, once, NormalizeName(once), "normalizing %q twice changed the result", input)
	}
}

func TestTokenSetSimilarity(t *testing.T) {
	sim := TokenSetSimilarity{}

	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "identical", a: "acme logistics", b: "acme logistics", expected: 1},
		{name: "disjoint", a: "acme logistics", b: "baker freight", expected: 0},
		{name: "one shared of two each", a: "acme logistics", b: "acme transport", expected: 0.5},
		{name: "reordered tokens", a: "logistics acme", b: "acme logistics", expected: 1},
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "one empty", a: "acme", b: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, sim.Score(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.expected, sim.Score(tt.b, tt.a), 1e-9, "similarity must be symmetric")
		})
	}
}
