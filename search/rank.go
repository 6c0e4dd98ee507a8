package search

import (
	"slices"

	"github.com/montanaflynn/stats"
	"github.com/poiesic/driftlens/core"
)

const scorePlaces = 4

// ranked is one entry of a fused or fallback ranking. Ranks are 1-based;
// zero means the item was absent from that list.
type ranked struct {
	id           core.ID
	score        float64
	semanticRank int
	lexicalRank  int
}

// rank merges the semantic and lexical lists and truncates to topK.
//
// With fusion set, each item scores the sum of 1/rank over the lists holding
// it. Without fusion, or when fusion yields nothing, items keep their raw
// semantic similarity. The boolean reports whether the fused ranking was used.
func rank(semantic, lexical []core.RankedID, topK int, fusion bool) ([]ranked, bool) {
	if fusion {
		if fused := fuse(semantic, lexical); len(fused) > 0 {
			return truncate(fused, topK), true
		}
	}

	results := make([]ranked, 0, len(semantic))
	for i, r := range semantic {
		results = append(results, ranked{
			id:           r.Id,
			score:        round(r.Score),
			semanticRank: i + 1,
		})
	}
	sortRanked(results)
	return truncate(results, topK), false
}

func fuse(semantic, lexical []core.RankedID) []ranked {
	byID := make(map[core.ID]*ranked, len(semantic)+len(lexical))
	order := make([]core.ID, 0, len(semantic)+len(lexical))

	entry := func(id core.ID) *ranked {
		r, ok := byID[id]
		if !ok {
			r = &ranked{id: id}
			byID[id] = r
			order = append(order, id)
		}
		return r
	}

	for i, r := range semantic {
		e := entry(r.Id)
		if e.semanticRank != 0 {
			continue
		}
		e.semanticRank = i + 1
		e.score += 1 / float64(i+1)
	}
	for i, r := range lexical {
		e := entry(r.Id)
		if e.lexicalRank != 0 {
			continue
		}
		e.lexicalRank = i + 1
		e.score += 1 / float64(i+1)
	}

	results := make([]ranked, 0, len(order))
	for _, id := range order {
		r := byID[id]
		r.score = round(r.score)
		results = append(results, *r)
	}
	sortRanked(results)
	return results
}

// sortRanked orders by score descending, then semantic rank, lexical rank
// and ID ascending. Absent ranks sort after present ones.
func sortRanked(results []ranked) {
	slices.SortStableFunc(results, func(a, b ranked) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		if c := compareRank(a.semanticRank, b.semanticRank); c != 0 {
			return c
		}
		if c := compareRank(a.lexicalRank, b.lexicalRank); c != 0 {
			return c
		}
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
}

func compareRank(a, b int) int {
	switch {
	case a == b:
		return 0
	case a == 0:
		return 1
	case b == 0:
		return -1
	case a < b:
		return -1
	default:
		return 1
	}
}

func truncate(results []ranked, topK int) []ranked {
	if len(results) > topK {
		return results[:topK]
	}
	return results
}

func round(v float64) float64 {
	r, err := stats.Round(v, scorePlaces)
	if err != nil {
		return v
	}
	return r
}
