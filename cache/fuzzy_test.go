package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		min  int
		max  int
	}{
		{
			name: "identical",
			a:    "The Matrix",
			b:    "The Matrix",
			min:  100,
			max:  100,
		},
		{
			name: "case and order insensitive",
			a:    "matrix the",
			b:    "The Matrix",
			min:  100,
			max:  100,
		},
		{
			name: "partial query against longer title",
			a:    "jujutsu",
			b:    "Jujutsu Kaisen",
			min:  100,
			max:  100,
		},
		{
			name: "minor typo",
			a:    "braking bad",
			b:    "Breaking Bad",
			min:  MinScore,
			max:  99,
		},
		{
			name: "unrelated strings",
			a:    "zorblefax",
			b:    "The Matrix",
			min:  0,
			max:  MinScore - 1,
		},
		{
			name: "empty query",
			a:    "",
			b:    "The Matrix",
			min:  0,
			max:  0,
		},
		{
			name: "punctuation ignored",
			a:    "spider man",
			b:    "Spider-Man",
			min:  100,
			max:  100,
		},
		{
			name: "duplicate tokens collapse",
			a:    "matrix matrix",
			b:    "The Matrix",
			min:  100,
			max:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := tokenSetRatio(tt.a, tt.b)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}
}

func TestTokenSetRatioOrdering(t *testing.T) {
	query := "matrix reload"
	reloaded := tokenSetRatio(query, "The Matrix Reloaded")
	original := tokenSetRatio(query, "The Matrix")

	assert.Greater(t, reloaded, original, "closer title must score higher")
	assert.GreaterOrEqual(t, reloaded, MinScore)
	assert.GreaterOrEqual(t, original, MinScore)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"bad", "breaking"}, tokenize("Breaking Bad"))
	assert.Equal(t, []string{"man", "spider"}, tokenize("Spider-Man!"))
	assert.Equal(t, []string{"matrix"}, tokenize("matrix matrix MATRIX"))
	assert.Empty(t, tokenize("  ... "))
}

func TestSplitTokenSets(t *testing.T) {
	both, onlyA, onlyB := splitTokenSets(
		[]string{"bad", "breaking"},
		[]string{"bad", "call", "saul"},
	)
	assert.Equal(t, []string{"bad"}, both)
	assert.Equal(t, []string{"breaking"}, onlyA)
	assert.Equal(t, []string{"call", "saul"}, onlyB)
}
