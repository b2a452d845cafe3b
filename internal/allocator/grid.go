package allocator

import (
	"fmt"
	"sort"
)

// CellState is the state of one (stage, slot) cell of the occupancy grid.
type CellState uint8

const (
	Free CellState = iota
	Turnover
	Occupied
)

func (s CellState) String() string {
	switch s {
	case Free:
		return "free"
	case Turnover:
		return "turnover"
	case Occupied:
		return "occupied"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Cell is a grid cell. Show holds the owning show ID for Occupied and
// Turnover cells and is 0 for free cells.
type Cell struct {
	State CellState `json:"state"`
	Show  int       `json:"show,omitempty"`
}

// Grid tracks per-stage, per-slot occupancy. Stages and slots are 1-based;
// the slot universe is [1, Slots()].
type Grid struct {
	slots    int
	turnover int
	rows     [][]Cell
}

// NewGrid returns a grid of free cells for the given number of stages over
// the slot universe [1, slots].
func NewGrid(stages, slots, turnover int) *Grid {
	g := &Grid{slots: slots, turnover: turnover}
	g.Grow(stages)
	return g
}

// Stages returns the current number of stage rows.
func (g *Grid) Stages() int { return len(g.rows) }

// Slots returns the size of the slot universe.
func (g *Grid) Slots() int { return g.slots }

// Turnover returns the turnover window the grid reserves after each show.
func (g *Grid) Turnover() int { return g.turnover }

// Cell returns the cell at the given stage and slot. Out-of-range
// coordinates read as free.
func (g *Grid) Cell(stage, slot int) Cell {
	if stage < 1 || stage > len(g.rows) || slot < 1 || slot > g.slots {
		return Cell{}
	}
	return g.rows[stage-1][slot-1]
}

// span returns the slot range [from, to] a show blocks: its playing slots
// followed by the turnover window, clipped to the universe. Callers have
// checked s.End <= g.slots, so the sum cannot overflow.
func (g *Grid) span(s Show) (from, to int) {
	return s.Start, s.End + min(g.turnover, g.slots-s.End)
}

// IsAvailable reports whether every slot the show would block on stage is
// free.
func (g *Grid) IsAvailable(stage int, s Show) bool {
	if stage < 1 || stage > len(g.rows) || s.Start < 1 || s.End > g.slots {
		return false
	}
	row := g.rows[stage-1]
	from, to := g.span(s)
	for t := from; t <= to; t++ {
		if row[t-1].State != Free {
			return false
		}
	}
	return true
}

// Available returns, in ascending order, the stages on which the show fits.
func (g *Grid) Available(s Show) []int {
	var out []int
	for stage := 1; stage <= len(g.rows); stage++ {
		if g.IsAvailable(stage, s) {
			out = append(out, stage)
		}
	}
	return out
}

// Reserve marks [Start, End] occupied by the show and the following turnover
// slots as turnover, both clipped to the universe. It fails with
// ErrCellTaken, leaving the grid untouched, if any target cell is not free.
func (g *Grid) Reserve(stage int, s Show) error {
	if stage < 1 || stage > len(g.rows) {
		return fmt.Errorf("reserve %s: stage %d out of range [1,%d]", s, stage, len(g.rows))
	}
	if s.Start < 1 || s.End > g.slots {
		return fmt.Errorf("reserve %s: outside slot universe [1,%d]", s, g.slots)
	}
	if !g.IsAvailable(stage, s) {
		return fmt.Errorf("reserve %s on stage %d: %w", s, stage, ErrCellTaken)
	}
	row := g.rows[stage-1]
	from, to := g.span(s)
	for t := from; t <= to; t++ {
		state := Occupied
		if t > s.End {
			state = Turnover
		}
		row[t-1] = Cell{State: state, Show: s.ID}
	}
	return nil
}

// Grow appends by fully free stage rows.
func (g *Grid) Grow(by int) {
	for i := 0; i < by; i++ {
		g.rows = append(g.rows, make([]Cell, g.slots))
	}
}

// Reset frees every cell without changing the number of stages.
func (g *Grid) Reset() {
	for _, row := range g.rows {
		clear(row)
	}
}

// Trim frees every cell after the last occupied slot of each stage, so a
// stage's active window ends exactly at its last show. Stages without any
// occupied cell end up entirely free.
func (g *Grid) Trim() {
	for _, row := range g.rows {
		last := -1
		for t := len(row) - 1; t >= 0; t-- {
			if row[t].State == Occupied {
				last = t
				break
			}
		}
		clear(row[last+1:])
	}
}

// Rows returns a copy of the grid, one slice of cells per stage.
func (g *Grid) Rows() [][]Cell {
	out := make([][]Cell, len(g.rows))
	for i, row := range g.rows {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}

// UsedStages returns the number of stages hosting at least one show.
func (g *Grid) UsedStages() int {
	n := 0
	for _, row := range g.rows {
		for _, c := range row {
			if c.State == Occupied {
				n++
				break
			}
		}
	}
	return n
}

// Assignments derives the show-to-stage relation from the occupied cells,
// sorted by show ID.
func (g *Grid) Assignments() []Assignment {
	byShow := make(map[int]*Assignment)
	for i, row := range g.rows {
		for j, c := range row {
			if c.State != Occupied {
				continue
			}
			slot := j + 1
			a, ok := byShow[c.Show]
			if !ok {
				byShow[c.Show] = &Assignment{ShowID: c.Show, Stage: i + 1, Start: slot, End: slot}
				continue
			}
			if slot > a.End {
				a.End = slot
			}
		}
	}
	out := make([]Assignment, 0, len(byShow))
	for _, a := range byShow {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShowID < out[j].ShowID })
	return out
}
