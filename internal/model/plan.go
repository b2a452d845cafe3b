package model

import "time"

// Plan is one stored allocation run over a lineup.  The ID is a UUID
// generated by the service.  Seed is set for Random runs so the plan
// can be reproduced.
type Plan struct {
	ID          string           `json:"id"`          // plans.id
	LineupID    uint64           `json:"lineup_id"`   // plans.lineup_id
	Policy      string           `json:"policy"`      // plans.policy
	Turnover    int              `json:"turnover"`    // plans.turnover
	Seed        *uint64          `json:"seed"`        // plans.seed (nullable)
	Stages      int              `json:"stages"`      // plans.stages
	MinStages   int              `json:"min_stages"`  // plans.min_stages
	Passes      int              `json:"passes"`      // plans.passes
	Escalations int              `json:"escalations"` // plans.escalations
	CreatedBy   uint64           `json:"created_by"`  // plans.created_by
	CreatedAt   time.Time        `json:"created_at"`  // plans.created_at
	Assignments []PlanAssignment `json:"assignments"`
}

// PlanAssignment is one row of `plan_assignments`: the stage a show was
// placed on.  Priority is the value used by the run, sampled or given.
type PlanAssignment struct {
	ShowID   int  `json:"show_id"`            // plan_assignments.show_position
	Stage    int  `json:"stage"`              // plan_assignments.stage
	Start    int  `json:"start"`              // plan_assignments.start_slot
	End      int  `json:"end"`                // plan_assignments.end_slot
	Priority *int `json:"priority,omitempty"` // plan_assignments.priority (nullable)
}
