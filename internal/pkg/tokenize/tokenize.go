// Package tokenize normalizes free-text queries into canonical token sets and
// scores them against each other.
package tokenize

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenLength is the shortest token, in runes, that survives tokenization.
const MinTokenLength = 2

// Tokenize lower-cases text, splits it on runs of non-alphanumeric
// characters, drops short tokens and duplicates, and returns the rest sorted.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTokenLength {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	sort.Strings(tokens)
	return tokens
}

// String is the stable serialized form of a token set.
func String(tokens []string) string {
	return strings.Join(tokens, " ")
}

// Jaccard returns round(100 * |a∩b| / |a∪b|). Either set being empty scores 0.
// Both inputs are treated as sets.
func Jaccard(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	union := len(set)
	inter := 0
	counted := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := counted[t]; dup {
			continue
		}
		counted[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return int(math.Round(100 * float64(inter) / float64(union)))
}

// Score tokenizes both texts and returns their Jaccard similarity.
func Score(a, b string) int {
	return Jaccard(Tokenize(a), Tokenize(b))
}
