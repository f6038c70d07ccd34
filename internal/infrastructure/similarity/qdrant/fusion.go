package qdrant

import "sort"

// rrfK dampens the reciprocal curve. 60 keeps a single list's top hit from
// drowning out points that appear in both lists.
const rrfK = 60.0

// fuseRRF merges ranked lists by reciprocal rank. A point's fused score is
// the sum of 1/(rrfK+rank+1) over every list it appears in, so showing up
// in both lists outweighs a high rank in one. Ties keep first-seen order.
func fuseRRF(lists ...[]scoredPoint) []scoredPoint {
	type fusedEntry struct {
		point scoredPoint
		score float64
		order int
	}
	byID := make(map[string]*fusedEntry)
	order := 0
	for _, list := range lists {
		for rank, pt := range list {
			entry, ok := byID[pt.id]
			if !ok {
				entry = &fusedEntry{point: pt, order: order}
				order++
				byID[pt.id] = entry
			}
			entry.score += 1.0 / (rrfK + float64(rank) + 1.0)
		}
	}

	fused := make([]*fusedEntry, 0, len(byID))
	for _, entry := range byID {
		fused = append(fused, entry)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].order < fused[j].order
	})

	out := make([]scoredPoint, 0, len(fused))
	for _, entry := range fused {
		pt := entry.point
		pt.score = entry.score
		out = append(out, pt)
	}
	return out
}
