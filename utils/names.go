package utils

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameSimilarityThreshold is the Levenshtein similarity above which two
// folded names are treated as the same person (absorbs single OCR slips).
const nameSimilarityThreshold = 0.92

// FoldName strips diacritics and case so that "Müller" and "MULLER" compare equal.
// Punctuation and MRZ fillers become spaces.
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'':
			return -1
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// NameTokens returns the folded name tokens in sorted order
func NameTokens(s string) []string {
	tokens := strings.Fields(FoldName(s))
	sort.Strings(tokens)
	return tokens
}

// NormalizeString normalizes string for comparison (folded, no spaces)
func NormalizeString(s string) string {
	return strings.ReplaceAll(FoldName(s), " ", "")
}

// CompareNames reports whether two names refer to the same person.
// Comparison ignores case, diacritics and token order.
func CompareNames(name1, name2 string) bool {
	t1 := NameTokens(name1)
	t2 := NameTokens(name2)
	if len(t1) == 0 || len(t2) == 0 {
		return false
	}

	if strings.Join(t1, " ") == strings.Join(t2, " ") {
		return true
	}

	return CalculateNameSimilarity(strings.Join(t1, " "), strings.Join(t2, " ")) >= nameSimilarityThreshold
}

// CalculateNameSimilarity calculates the similarity between two names using Levenshtein distance
// Returns a score between 0.0 and 1.0
func CalculateNameSimilarity(name1, name2 string) float64 {
	s1 := NormalizeString(name1)
	s2 := NormalizeString(name2)

	if s1 == "" && s2 == "" {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	dist := levenshteinDistance(s1, s2)
	maxLen := len([]rune(s1))
	if l := len([]rune(s2)); l > maxLen {
		maxLen = l
	}

	return 1.0 - float64(dist)/float64(maxLen)
}

// levenshteinDistance calculates the Levenshtein distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	n, m := len(r1), len(r2)

	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}

	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[m]
}
