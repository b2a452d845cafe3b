// Package report renders allocation results: the per-show report lines, a
// short summary and text timetables of the occupancy grid.
package report

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/iliyamo/stage-planner/internal/allocator"
)

// WriteReport writes one line per show in show-ID order:
//
//	show=<id> priority=<p|-> stage=<r> slots=[<start>,<end>]
//
// A nil or partial priorities map prints "-" for shows without one.
func WriteReport(w io.Writer, assignments []allocator.Assignment, priorities map[int]int) error {
	sorted := slices.Clone(assignments)
	slices.SortFunc(sorted, func(a, b allocator.Assignment) int { return a.ShowID - b.ShowID })

	bw := bufio.NewWriter(w)
	for _, a := range sorted {
		prio := "-"
		if p, ok := priorities[a.ShowID]; ok {
			prio = strconv.Itoa(p)
		}
		fmt.Fprintf(bw, "show=%d priority=%s stage=%d slots=[%d,%d]\n", a.ShowID, prio, a.Stage, a.Start, a.End)
	}
	return bw.Flush()
}

// WriteSummary writes the headline numbers of a run.
func WriteSummary(w io.Writer, res *allocator.Result) error {
	_, err := fmt.Fprintf(w,
		"policy=%s turnover=%d shows=%d stages=%d min_stages=%d passes=%d escalations=%d\n",
		res.Policy, res.Turnover, len(res.Assignments), res.Stages, res.MinStages, res.Passes, res.Escalations)
	return err
}
