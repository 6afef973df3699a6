package cache

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// tokenSetRatio scores the similarity of two strings on a 0-100 scale using
// token-set comparison: both strings are tokenized, and the sorted
// intersection and remainders are compared pairwise by normalized
// Levenshtein distance. Word order does not matter and partial queries
// score well against longer titles ("jujutsu" matches "jujutsu kaisen").
func tokenSetRatio(a, b string) int {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection, onlyA, onlyB := splitTokenSets(tokensA, tokensB)

	base := strings.Join(intersection, " ")
	combinedA := joinNonEmpty(base, strings.Join(onlyA, " "))
	combinedB := joinNonEmpty(base, strings.Join(onlyB, " "))

	score := levenshteinRatio(combinedA, combinedB)
	if base != "" {
		if s := levenshteinRatio(base, combinedA); s > score {
			score = s
		}
		if s := levenshteinRatio(base, combinedB); s > score {
			score = s
		}
	}
	return score
}

// levenshteinRatio converts edit distance into a 0-100 similarity
func levenshteinRatio(a, b string) int {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return (total - dist) * 100 / total
}

// tokenize lowercases and splits text into sorted unique word tokens
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(words))
	unique := words[:0]
	for _, w := range words {
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			unique = append(unique, w)
		}
	}
	sort.Strings(unique)
	return unique
}

// splitTokenSets partitions two sorted token sets into the shared tokens
// and the remainders unique to each side
func splitTokenSets(a, b []string) (both, onlyA, onlyB []string) {
	inB := make(map[string]struct{}, len(b))
	for _, t := range b {
		inB[t] = struct{}{}
	}

	inBoth := make(map[string]struct{})
	for _, t := range a {
		if _, ok := inB[t]; ok {
			both = append(both, t)
			inBoth[t] = struct{}{}
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range b {
		if _, ok := inBoth[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	return both, onlyA, onlyB
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}
