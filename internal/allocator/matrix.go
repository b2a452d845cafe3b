package allocator

// ShowMatrix lays shows out one row per show, in the order given, over the
// universe [1, Horizon(shows)]: playing slots are Occupied and the following
// turnover slots are Turnover. Passing the input lineup gives the raw view;
// passing SortShows of it gives the processing-order view.
func ShowMatrix(shows []Show, turnover int) [][]Cell {
	horizon := Horizon(shows)
	out := make([][]Cell, len(shows))
	for i, s := range shows {
		row := make([]Cell, horizon)
		for t := max(s.Start, 1); t <= min(s.End+turnover, horizon); t++ {
			state := Occupied
			if t > s.End {
				state = Turnover
			}
			row[t-1] = Cell{State: state, Show: s.ID}
		}
		out[i] = row
	}
	return out
}
