package allocator

import (
	"cmp"
	"fmt"
	"slices"
)

// compareShows orders by start ascending, then end descending so the longest
// of several co-starting shows goes first, then by ID.
func compareShows(a, b Show) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(b.End, a.End); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortShows returns a copy of shows in processing order.
func SortShows(shows []Show) []Show {
	out := slices.Clone(shows)
	slices.SortFunc(out, compareShows)
	return out
}

// Tiers partitions shows into processing tiers. Only Popularity splits the
// lineup, one tier per distinct priority, highest first; every other policy
// gets a single tier. Each tier is in SortShows order.
func Tiers(shows []Show, policy Policy, priorities map[int]int) ([][]Show, error) {
	if policy != Popularity {
		return [][]Show{SortShows(shows)}, nil
	}
	groups := make(map[int][]Show)
	for _, s := range shows {
		p, ok := priorities[s.ID]
		if !ok {
			return nil, fmt.Errorf("show %d: %w", s.ID, ErrMissingPriority)
		}
		groups[p] = append(groups[p], s)
	}
	levels := make([]int, 0, len(groups))
	for p := range groups {
		levels = append(levels, p)
	}
	slices.SortFunc(levels, func(a, b int) int { return cmp.Compare(b, a) })

	tiers := make([][]Show, 0, len(levels))
	for _, p := range levels {
		tier := groups[p]
		slices.SortFunc(tier, compareShows)
		tiers = append(tiers, tier)
	}
	return tiers, nil
}
