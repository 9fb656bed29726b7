package similarity

import (
	"strings"
	"unicode"
)

// minWordLen is the shortest token kept as a keyword; shorter tokens are noise.
const minWordLen = 3

var stopwords = toSet(
	"the", "and", "for", "with", "that", "this", "are", "was", "but", "not", "you", "your",
	"have", "has", "had", "from", "they", "them", "their", "there", "here", "who", "what",
	"when", "where", "which", "will", "would", "could", "should", "can", "about", "into",
	"than", "then", "also", "just", "very", "more", "most", "some", "any", "all", "our",
	"ours", "its", "his", "her", "she", "him", "been", "being", "were", "does", "did",
	"doing", "looking", "need", "needs", "want", "wants", "like", "someone", "person",
	"room", "roommate", "place", "please", "im", "ive", "etc", "really", "much", "well",
)

// Tokenize lowercases text, splits on anything that is not a letter or digit,
// and drops stopwords and tokens shorter than three runes.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < minWordLen {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ExtractKeywords returns the distinct meaningful words of text in first-seen order.
func ExtractKeywords(text string) []string {
	return NormalizeKeywords(Tokenize(text))
}

// NormalizeKeywords lowercases, trims and de-duplicates keywords, preserving order.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Jaccard returns |A∩B| / |A∪B| over case-normalized keyword sets.
// An empty union yields 0.
func Jaccard(a, b []string) float64 {
	setA := normalizedSet(a)
	setB := normalizedSet(b)

	union := len(setA)
	inter := 0
	for k := range setB {
		if _, ok := setA[k]; ok {
			inter++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func normalizedSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	return m
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
