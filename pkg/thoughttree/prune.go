package thoughttree

import "sort"

// prune selects the surviving beam from a set of evaluated branches:
// drop anything below threshold, stable-sort by score descending, keep
// the top beamWidth. Ties keep generation order. Pure and
// deterministic, so it can be re-run on replay without divergence.
func prune(evaluated []*Branch, beamWidth int, threshold float64) (kept, dropped []*Branch) {
	for _, b := range evaluated {
		if b.Score >= threshold {
			kept = append(kept, b)
		} else {
			dropped = append(dropped, b)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if len(kept) > beamWidth {
		dropped = append(dropped, kept[beamWidth:]...)
		kept = kept[:beamWidth]
	}
	return kept, dropped
}
