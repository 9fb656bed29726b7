package similarity

import "strings"

// conceptClusters groups words that mean roughly the same thing in housing ads.
// Matching on cluster membership is a zero-cost stand-in for embeddings.
var conceptClusters = [][]string{
	{"quiet", "peaceful", "calm", "tranquil", "silent", "serene"},
	{"clean", "tidy", "organized", "organised", "neat", "spotless"},
	{"friendly", "social", "outgoing", "sociable", "easygoing", "chill", "relaxed"},
	{"student", "students", "studying", "university", "college", "grad", "campus"},
	{"professional", "professionals", "working", "career", "employed", "office"},
	{"pet", "pets", "dog", "dogs", "cat", "cats", "puppy", "kitten"},
	{"nonsmoker", "nonsmoking", "smokefree"},
	{"cook", "cooking", "chef", "kitchen", "baking", "meals"},
	{"gym", "fitness", "workout", "exercise", "active", "sporty", "running"},
	{"nightowl", "night", "late", "nocturnal"},
	{"early", "morning", "earlybird", "sunrise"},
	{"party", "parties", "nightlife", "clubbing", "drinks"},
	{"music", "musician", "guitar", "piano", "singing"},
	{"vegan", "vegetarian", "plantbased"},
	{"furnished", "furniture", "equipped"},
	{"spacious", "large", "big", "roomy", "huge"},
	{"cozy", "cosy", "snug", "compact"},
	{"sunny", "bright", "light", "airy"},
	{"downtown", "central", "city", "centre", "center", "urban"},
	{"transit", "subway", "metro", "bus", "train", "station", "commute"},
	{"parking", "garage", "driveway", "car"},
	{"laundry", "washer", "dryer", "washing"},
	{"garden", "yard", "backyard", "balcony", "patio", "terrace"},
	{"affordable", "cheap", "budget", "inexpensive", "reasonable"},
	{"gamer", "gaming", "games", "videogames"},
	{"remote", "wfh", "homeoffice", "freelance"},
}

var conceptIndex = buildConceptIndex()

func buildConceptIndex() map[string]int {
	idx := make(map[string]int)
	for i, cluster := range conceptClusters {
		for _, w := range cluster {
			idx[w] = i
		}
	}
	return idx
}

// SemanticWordOverlap scores how many of the searcher's concepts the post also mentions.
// Each meaningful user word is mapped to its synonym cluster; the score is
// matched clusters / distinct user clusters. Words outside every cluster are ignored,
// and a user text with no known concept scores 0.
func SemanticWordOverlap(userWords, postWords []string) float64 {
	userConcepts := conceptsOf(userWords)
	if len(userConcepts) == 0 {
		return 0
	}
	postConcepts := conceptsOf(postWords)

	matched := 0
	for c := range userConcepts {
		if _, ok := postConcepts[c]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(userConcepts))
}

func conceptsOf(words []string) map[int]struct{} {
	out := make(map[int]struct{})
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if len([]rune(w)) < minWordLen {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if c, ok := conceptIndex[w]; ok {
			out[c] = struct{}{}
		}
	}
	return out
}
