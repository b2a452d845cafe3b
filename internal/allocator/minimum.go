package allocator

import (
	"cmp"
	"slices"
)

// MinimumStages returns the largest number of shows whose playing slots plus
// turnover cover any single timeslot. No policy can host the lineup on fewer
// stages, and DenseMainStage and Random always meet it exactly.
//
// It sweeps the start and end events of each blocked span, so its cost
// depends on the number of shows and not on how far the lineup reaches.
func MinimumStages(shows []Show, turnover int) (int, error) {
	if err := ValidateTurnover(turnover); err != nil {
		return 0, err
	}
	if err := ValidateShows(shows); err != nil {
		return 0, err
	}
	horizon := Horizon(shows)
	if horizon == 0 {
		return 0, nil
	}

	type event struct {
		slot  int
		delta int
	}
	events := make([]event, 0, 2*len(shows))
	for _, s := range shows {
		// Last blocked slot, clipped to the horizon without overflowing.
		to := s.End + min(turnover, horizon-s.End)
		events = append(events, event{s.Start, 1}, event{to, -1})
	}
	// Spans are inclusive: at equal slots, openings count before closings.
	slices.SortFunc(events, func(a, b event) int {
		if c := cmp.Compare(a.slot, b.slot); c != 0 {
			return c
		}
		return cmp.Compare(b.delta, a.delta)
	})

	best, cur := 0, 0
	for _, e := range events {
		cur += e.delta
		best = max(best, cur)
	}
	return best, nil
}
