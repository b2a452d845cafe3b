package service

import (
	"fmt"

	"github.com/iliyamo/stage-planner/internal/allocator"
	"github.com/iliyamo/stage-planner/internal/model"
)

// PlanResult rebuilds the allocator view of a stored plan: its assignments
// and the trimmed occupancy grid they produce.
func PlanResult(plan *model.Plan) (*allocator.Result, error) {
	policy, err := allocator.ParsePolicy(plan.Policy)
	if err != nil {
		return nil, err
	}
	shows := make([]allocator.Show, len(plan.Assignments))
	res := &allocator.Result{
		Policy:      policy,
		Turnover:    plan.Turnover,
		Stages:      plan.Stages,
		MinStages:   plan.MinStages,
		Passes:      plan.Passes,
		Escalations: plan.Escalations,
		Assignments: make([]allocator.Assignment, len(plan.Assignments)),
	}
	for i, a := range plan.Assignments {
		shows[i] = allocator.Show{ID: a.ShowID, Start: a.Start, End: a.End}
		res.Assignments[i] = allocator.Assignment{ShowID: a.ShowID, Stage: a.Stage, Start: a.Start, End: a.End}
	}

	grid := allocator.NewGrid(plan.Stages, allocator.Horizon(shows), plan.Turnover)
	for _, a := range res.Assignments {
		s := allocator.Show{ID: a.ShowID, Start: a.Start, End: a.End}
		if err := grid.Reserve(a.Stage, s); err != nil {
			return nil, fmt.Errorf("plan %s: %w", plan.ID, err)
		}
	}
	grid.Trim()
	res.Grid = grid
	return res, nil
}

// PlanPriorities collects the priorities recorded on a plan's assignments.
func PlanPriorities(plan *model.Plan) map[int]int {
	out := make(map[int]int, len(plan.Assignments))
	for _, a := range plan.Assignments {
		if a.Priority != nil {
			out[a.ShowID] = *a.Priority
		}
	}
	return out
}
