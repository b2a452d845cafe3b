package allocator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_ReserveMarksPlayingAndTurnover(t *testing.T) {
	g := NewGrid(1, 8, 2)
	require.NoError(t, g.Reserve(1, Show{ID: 4, Start: 2, End: 4}))

	assert.Equal(t, Free, g.Cell(1, 1).State)
	for slot := 2; slot <= 4; slot++ {
		assert.Equal(t, Cell{State: Occupied, Show: 4}, g.Cell(1, slot), "slot %d", slot)
	}
	assert.Equal(t, Turnover, g.Cell(1, 5).State)
	assert.Equal(t, Turnover, g.Cell(1, 6).State)
	assert.Equal(t, Free, g.Cell(1, 7).State)
}

func TestGrid_TurnoverClippedToUniverse(t *testing.T) {
	g := NewGrid(1, 5, 3)
	require.NoError(t, g.Reserve(1, Show{ID: 1, Start: 4, End: 5}))
	assert.Equal(t, Occupied, g.Cell(1, 5).State)
	assert.True(t, g.IsAvailable(1, Show{ID: 2, Start: 1, End: 3}))
}

func TestGrid_HugeTurnoverRunsToUniverseEnd(t *testing.T) {
	g := NewGrid(1, 5, math.MaxInt)
	require.NoError(t, g.Reserve(1, Show{ID: 1, Start: 1, End: 3}))

	assert.Equal(t, []Assignment{{ShowID: 1, Stage: 1, Start: 1, End: 3}}, g.Assignments())
	assert.Equal(t, Turnover, g.Cell(1, 4).State)
	assert.Equal(t, Turnover, g.Cell(1, 5).State)
	assert.False(t, g.IsAvailable(1, Show{ID: 2, Start: 5, End: 5}))
}

func TestGrid_IsAvailableIncludesTurnover(t *testing.T) {
	g := NewGrid(2, 10, 1)
	require.NoError(t, g.Reserve(1, Show{ID: 1, Start: 1, End: 3}))

	assert.False(t, g.IsAvailable(1, Show{ID: 2, Start: 4, End: 5}), "slot 4 is turnover")
	assert.True(t, g.IsAvailable(1, Show{ID: 2, Start: 5, End: 6}))
	assert.True(t, g.IsAvailable(2, Show{ID: 2, Start: 2, End: 3}))
	assert.False(t, g.IsAvailable(3, Show{ID: 2, Start: 5, End: 6}), "stage out of range")
	assert.Equal(t, []int{2}, g.Available(Show{ID: 3, Start: 3, End: 3}))
}

func TestGrid_ReserveRejectsTakenCells(t *testing.T) {
	g := NewGrid(1, 6, 0)
	require.NoError(t, g.Reserve(1, Show{ID: 1, Start: 1, End: 3}))

	err := g.Reserve(1, Show{ID: 2, Start: 3, End: 4})
	require.ErrorIs(t, err, ErrCellTaken)
	assert.Equal(t, Free, g.Cell(1, 4).State, "failed reserve must not write")

	assert.Error(t, g.Reserve(2, Show{ID: 3, Start: 5, End: 5}))
	assert.Error(t, g.Reserve(1, Show{ID: 3, Start: 5, End: 9}))
}

func TestGrid_GrowAndReset(t *testing.T) {
	g := NewGrid(1, 4, 0)
	require.NoError(t, g.Reserve(1, Show{ID: 1, Start: 1, End: 4}))

	g.Grow(2)
	assert.Equal(t, 3, g.Stages())
	assert.Equal(t, []int{2, 3}, g.Available(Show{ID: 2, Start: 1, End: 1}))

	g.Reset()
	assert.Equal(t, 3, g.Stages())
	assert.Equal(t, []int{1, 2, 3}, g.Available(Show{ID: 2, Start: 1, End: 4}))
}

func TestGrid_TrimClearsTrailingTurnoverOnly(t *testing.T) {
	g := NewGrid(3, 10, 2)
	require.NoError(t, g.Reserve(1, Show{ID: 1, Start: 1, End: 2}))
	require.NoError(t, g.Reserve(1, Show{ID: 2, Start: 5, End: 6}))
	require.NoError(t, g.Reserve(2, Show{ID: 3, Start: 9, End: 10}))

	g.Trim()

	assert.Equal(t, Turnover, g.Cell(1, 3).State, "turnover between shows survives")
	assert.Equal(t, Turnover, g.Cell(1, 4).State)
	assert.Equal(t, Free, g.Cell(1, 7).State)
	assert.Equal(t, Free, g.Cell(1, 8).State)
	assert.Equal(t, Occupied, g.Cell(2, 10).State)
	for slot := 1; slot <= 10; slot++ {
		assert.Equal(t, Free, g.Cell(3, slot).State)
	}
	assertTrimmed(t, g)
	assert.Equal(t, 2, g.UsedStages())
}

func TestGrid_AssignmentsFromCells(t *testing.T) {
	g := NewGrid(2, 6, 1)
	require.NoError(t, g.Reserve(2, Show{ID: 2, Start: 2, End: 4}))
	require.NoError(t, g.Reserve(1, Show{ID: 1, Start: 1, End: 3}))

	assert.Equal(t, []Assignment{
		{ShowID: 1, Stage: 1, Start: 1, End: 3},
		{ShowID: 2, Stage: 2, Start: 2, End: 4},
	}, g.Assignments())
}

func TestGrid_RowsIsACopy(t *testing.T) {
	g := NewGrid(1, 3, 0)
	rows := g.Rows()
	rows[0][0] = Cell{State: Occupied, Show: 9}
	assert.Equal(t, Free, g.Cell(1, 1).State)
}

// assertTrimmed checks that no stage has a non-free cell after its last
// occupied slot.
func assertTrimmed(t *testing.T, g *Grid) {
	t.Helper()
	for i, row := range g.Rows() {
		last := -1
		for j, c := range row {
			if c.State == Occupied {
				last = j
			}
		}
		for j := last + 1; j < len(row); j++ {
			assert.Equal(t, Free, row[j].State, "stage %d slot %d after last show", i+1, j+1)
		}
	}
}
