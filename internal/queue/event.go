// Package queue defines the plan.completed message and the background
// consumer that records completed plans in a log file.
package queue

import (
	"fmt"
	"time"
)

// PlanCompletedQueue is the durable queue plan events are routed to.
const PlanCompletedQueue = "plan.completed"

// PlanCompletedEvent is published after a plan has been allocated and
// stored.  It carries enough for downstream consumers to log, notify or
// aggregate without querying the primary database.
type PlanCompletedEvent struct {
	PlanID      string    `json:"plan_id"`
	LineupID    uint64    `json:"lineup_id"`
	LineupName  string    `json:"lineup_name"`
	Policy      string    `json:"policy"`
	Turnover    int       `json:"turnover"`
	Stages      int       `json:"stages"`
	MinStages   int       `json:"min_stages"`
	Passes      int       `json:"passes"`
	Shows       int       `json:"shows"`
	CreatedBy   uint64    `json:"created_by"`
	CompletedAt time.Time `json:"completed_at"`
}

// Line renders the event as a single log line.
func (ev PlanCompletedEvent) Line() string {
	return fmt.Sprintf("[%s] Plan completed | plan_id=%s | lineup_id=%d | lineup=%q | policy=%s | turnover=%d | shows=%d | stages=%d | min_stages=%d | passes=%d | created_by=%d\n",
		ev.CompletedAt.UTC().Format(time.RFC3339), ev.PlanID, ev.LineupID, ev.LineupName, ev.Policy,
		ev.Turnover, ev.Shows, ev.Stages, ev.MinStages, ev.Passes, ev.CreatedBy)
}
