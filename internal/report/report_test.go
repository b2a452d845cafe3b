package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stage-planner/internal/allocator"
)

var scenario = []allocator.Show{
	{ID: 1, Start: 1, End: 3},
	{ID: 2, Start: 2, End: 4},
	{ID: 3, Start: 5, End: 6},
}

func TestWriteReport(t *testing.T) {
	assignments := []allocator.Assignment{
		{ShowID: 2, Stage: 2, Start: 2, End: 4},
		{ShowID: 1, Stage: 1, Start: 1, End: 3},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, assignments, map[int]int{1: 7}))

	assert.Equal(t,
		"show=1 priority=7 stage=1 slots=[1,3]\n"+
			"show=2 priority=- stage=2 slots=[2,4]\n",
		buf.String())
	assert.Equal(t, 2, assignments[0].ShowID, "input order untouched")
}

func TestWriteSummary(t *testing.T) {
	res, err := allocator.Allocate(scenario, 1, allocator.DenseMainStage)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, res))
	assert.Equal(t, "policy=dense turnover=1 shows=3 stages=2 min_stages=2 passes=1 escalations=0\n", buf.String())
}

func TestRenderGrid(t *testing.T) {
	res, err := allocator.Allocate(scenario, 1, allocator.DenseMainStage)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderGrid(&buf, res.Grid.Rows(), GridOptions{}))
	assert.Equal(t,
		"   123456\n"+
			"S1 111~33\n"+
			"S2 .222..\n",
		buf.String())
}

func TestRenderGrid_LargeIDsUseBase36(t *testing.T) {
	rows := [][]allocator.Cell{{
		{State: allocator.Occupied, Show: 11},
		{State: allocator.Occupied, Show: 37},
		{State: allocator.Turnover, Show: 37},
	}}
	var buf bytes.Buffer
	require.NoError(t, RenderGrid(&buf, rows, GridOptions{Title: "ids", RowLabel: "#"}))
	assert.Equal(t, "ids\n   123\n#1 b1~\n", buf.String())
}

func TestRenderGrid_Color(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	rows := [][]allocator.Cell{{{State: allocator.Occupied, Show: 1}, {}}}
	var buf bytes.Buffer
	require.NoError(t, RenderGrid(&buf, rows, GridOptions{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.True(t, strings.HasSuffix(buf.String(), ".\n"), "free cells stay plain")
}

func TestRenderResult(t *testing.T) {
	res, err := allocator.Allocate(scenario, 1, allocator.DenseMainStage)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderResult(&buf, scenario, res, false))
	out := buf.String()
	assert.Contains(t, out, "raw lineup\n")
	assert.Contains(t, out, "processing order\n")
	assert.Contains(t, out, "stages (dense)\n")
	assert.Contains(t, out, "#1 111~..\n")
	assert.Contains(t, out, "S2 .222..\n")
}
