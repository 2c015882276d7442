package service

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/rillfeed/rill/internal/domain"
)

// SearchEntries ranks cached entries against a fuzzy query over title and
// feed title. Results come back best match first; an empty query returns
// nil.
func SearchEntries(query string, entries []domain.Entry) []domain.Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	type scored struct {
		entry domain.Entry
		rank  int
	}

	var matches []scored
	for _, entry := range entries {
		rank := fuzzy.RankMatchNormalizedFold(query, entry.Title)
		if rank < 0 {
			rank = fuzzy.RankMatchNormalizedFold(query, entry.FeedTitle)
			if rank < 0 {
				continue
			}
			// Feed-title matches rank behind same-distance title matches.
			rank += 1000
		}
		matches = append(matches, scored{entry: entry, rank: rank})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].rank < matches[j].rank
	})

	out := make([]domain.Entry, len(matches))
	for i, m := range matches {
		out[i] = m.entry
	}
	return out
}
