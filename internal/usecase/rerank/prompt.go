package rerank

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/matchmate/internal/domain/match"
)

const maxDescriptionRunes = 300

const systemPrompt = `You rank housing listings for a person searching for a room or a roommate.
Judge how well each listing fits what the searcher wrote. Filter notes describe how the
listing compares to the searcher's explicit preferences.

Answer with the line "RANKING:" followed by exactly %d lines, best first, in this format:
1. ID: <id> - <one sentence on why it fits>
Use only IDs from the list. Do not add anything after the ranking.`

func buildSystemPrompt(topN int) string {
	return fmt.Sprintf(systemPrompt, topN)
}

func buildUserPrompt(searchText string, candidates []match.Result) string {
	var b strings.Builder
	b.WriteString("Searcher:\n")
	b.WriteString(strings.TrimSpace(searchText))
	b.WriteString("\n\nListings:\n")

	for i := range candidates {
		l := &candidates[i].Listing
		fmt.Fprintf(&b, "\nID: %s\nType: %s\n", l.ID, l.Type)
		if l.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", l.Title)
		}
		if l.Price != nil {
			fmt.Fprintf(&b, "Price: $%.0f\n", *l.Price)
		}
		if l.Address != "" {
			fmt.Fprintf(&b, "Address: %s\n", l.Address)
		}
		fmt.Fprintf(&b, "Description: %s\n", truncate(l.Description, maxDescriptionRunes))
		if notes := factorNotes(candidates[i].Factors); notes != "" {
			fmt.Fprintf(&b, "Filter notes: %s\n", notes)
		}
	}
	return b.String()
}

func factorNotes(factors []match.Factor) string {
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		parts = append(parts, f.Explanation)
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
