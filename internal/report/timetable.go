package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/iliyamo/stage-planner/internal/allocator"
)

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

var palette = []color.Attribute{
	color.FgRed, color.FgGreen, color.FgYellow, color.FgBlue, color.FgMagenta, color.FgCyan,
}

// GridOptions controls RenderGrid.
type GridOptions struct {
	// Title is printed above the table when set.
	Title string
	// RowLabel prefixes each row number, "S" for stages by default.
	RowLabel string
	// Color paints each show in a colour picked from its ID.
	Color bool
}

// RenderGrid draws rows of cells as a timetable. Free cells print '.',
// turnover cells '~' and occupied cells the last base-36 digit of the show ID.
// The header carries the last digit of each slot number.
func RenderGrid(w io.Writer, rows [][]allocator.Cell, opts GridOptions) error {
	label := opts.RowLabel
	if label == "" {
		label = "S"
	}
	slots := 0
	for _, r := range rows {
		slots = max(slots, len(r))
	}
	width := len(label) + len(strconv.Itoa(max(len(rows), 1)))

	bw := bufio.NewWriter(w)
	if opts.Title != "" {
		fmt.Fprintln(bw, opts.Title)
	}
	fmt.Fprintf(bw, "%*s ", width, "")
	for t := 1; t <= slots; t++ {
		bw.WriteByte(digits[t%10])
	}
	bw.WriteByte('\n')

	for i, r := range rows {
		fmt.Fprintf(bw, "%*s ", width, label+strconv.Itoa(i+1))
		for _, c := range r {
			bw.WriteString(cellText(c, opts.Color))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func cellText(c allocator.Cell, colored bool) string {
	var s string
	switch c.State {
	case allocator.Occupied:
		s = string(digits[c.Show%len(digits)])
	case allocator.Turnover:
		s = "~"
	default:
		return "."
	}
	if !colored {
		return s
	}
	return color.New(palette[c.Show%len(palette)]).Sprint(s)
}

type view struct {
	title string
	label string
	rows  [][]allocator.Cell
}

// RenderResult writes the raw lineup, the processing order and the final
// stage grid one after another.
func RenderResult(w io.Writer, shows []allocator.Show, res *allocator.Result, colored bool) error {
	views := []view{
		{"raw lineup", "#", allocator.ShowMatrix(shows, res.Turnover)},
		{"processing order", "#", allocator.ShowMatrix(allocator.SortShows(shows), res.Turnover)},
	}
	if res.Grid != nil {
		views = append(views, view{fmt.Sprintf("stages (%s)", res.Policy), "S", res.Grid.Rows()})
	}
	for i, v := range views {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := RenderGrid(w, v.rows, GridOptions{Title: v.title, RowLabel: v.label, Color: colored}); err != nil {
			return err
		}
	}
	return nil
}
