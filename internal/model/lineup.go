package model

import (
	"time"

	"github.com/iliyamo/stage-planner/internal/allocator"
	"github.com/iliyamo/stage-planner/internal/lineup"
)

// Lineup is a stored festival lineup: the set of shows a planner wants
// placed on stages.  Turnover is the lineup's own turnover window and
// overrides the server default when set.
type Lineup struct {
	ID        uint64       `json:"id"`         // lineups.id
	OwnerID   uint64       `json:"owner_id"`   // lineups.owner_id, the planner who created it
	Name      string       `json:"name"`       // lineups.name
	Turnover  *int         `json:"turnover"`   // lineups.turnover (nullable)
	CreatedAt time.Time    `json:"created_at"` // lineups.created_at
	Shows     []LineupShow `json:"shows"`
}

// LineupShow is one row of `lineup_shows`.  Position is the 1-based show
// index used as the show ID by the allocator.
type LineupShow struct {
	Position int    `json:"id"`                 // lineup_shows.position
	Title    string `json:"title,omitempty"`    // lineup_shows.title
	Start    int    `json:"start"`              // lineup_shows.start_slot
	End      int    `json:"end"`                // lineup_shows.end_slot
	Priority *int   `json:"priority,omitempty"` // lineup_shows.priority (nullable)
}

// Entries converts the stored shows into a lineup the allocator packages
// understand.
func (l *Lineup) Entries() lineup.Entries {
	out := make(lineup.Entries, len(l.Shows))
	for i, s := range l.Shows {
		out[i] = lineup.Entry{ID: s.Position, Title: s.Title, Start: s.Start, End: s.End}
		if s.Priority != nil {
			out[i].Priority = lineup.IntPtr(*s.Priority)
		}
	}
	return out
}

// ShowsFromEntries builds lineup rows from parsed entries, numbering them by
// position.
func ShowsFromEntries(entries lineup.Entries) []LineupShow {
	out := make([]LineupShow, len(entries))
	for i, e := range entries {
		out[i] = LineupShow{Position: i + 1, Title: e.Title, Start: e.Start, End: e.End, Priority: e.Priority}
	}
	return out
}

// AllocatorShows returns the allocator view of the lineup.
func (l *Lineup) AllocatorShows() []allocator.Show {
	return l.Entries().Shows()
}
