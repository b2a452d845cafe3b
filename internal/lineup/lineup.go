// Package lineup reads festival lineups, the list of shows handed to the
// stage allocator, and fills in missing priorities.
//
// Two formats are understood. The text format has one show per line as
// "start end" or "priority start end", optionally followed by a title;
// fields are separated by whitespace or commas and lines starting with '#'
// are ignored. The YAML format carries a name, an optional turnover and a
// list of shows.
package lineup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iliyamo/stage-planner/internal/allocator"
)

var (
	// ErrEmpty is returned when a lineup contains no shows.
	ErrEmpty = errors.New("lineup has no shows")
	// ErrPriorityRange is returned for a supplied priority outside the
	// configured range.
	ErrPriorityRange = errors.New("priority out of range")
)

// Entry is one show of a lineup. ID is its 1-based position. Priority is nil
// until the lineup supplies one or a Sampler fills it in.
type Entry struct {
	ID       int    `json:"id" yaml:"-"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Start    int    `json:"start" yaml:"start"`
	End      int    `json:"end" yaml:"end"`
	Priority *int   `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Show converts the entry for the allocator.
func (e Entry) Show() allocator.Show {
	return allocator.Show{ID: e.ID, Start: e.Start, End: e.End}
}

// Entries is an ordered lineup.
type Entries []Entry

// Shows returns the allocator view of the lineup, in lineup order.
func (es Entries) Shows() []allocator.Show {
	out := make([]allocator.Show, len(es))
	for i, e := range es {
		out[i] = e.Show()
	}
	return out
}

// Priorities maps show ID to priority for every entry that has one.
func (es Entries) Priorities() map[int]int {
	out := make(map[int]int, len(es))
	for _, e := range es {
		if e.Priority != nil {
			out[e.ID] = *e.Priority
		}
	}
	return out
}

// Complete reports whether every entry carries a priority.
func (es Entries) Complete() bool {
	for _, e := range es {
		if e.Priority == nil {
			return false
		}
	}
	return true
}

// Validate checks every interval, reporting the first offending show.
func (es Entries) Validate() error {
	if len(es) == 0 {
		return ErrEmpty
	}
	return allocator.ValidateShows(es.Shows())
}

// ValidatePriorities checks every supplied priority against [lo, hi].
// Entries without a priority pass.
func (es Entries) ValidatePriorities(lo, hi int) error {
	for _, e := range es {
		if e.Priority != nil && (*e.Priority < lo || *e.Priority > hi) {
			return fmt.Errorf("%w: show %d has %d, want [%d,%d]", ErrPriorityRange, e.ID, *e.Priority, lo, hi)
		}
	}
	return nil
}

// Lineup is a named set of shows with an optional turnover override.
type Lineup struct {
	Name     string  `json:"name" yaml:"name"`
	Turnover *int    `json:"turnover,omitempty" yaml:"turnover,omitempty"`
	Shows    Entries `json:"shows" yaml:"shows"`
}

// Number assigns 1-based IDs by position.
func (l *Lineup) Number() {
	for i := range l.Shows {
		l.Shows[i].ID = i + 1
	}
}

// Load reads a lineup file, YAML for .yaml/.yml and the text format
// otherwise. A text lineup is named after its file.
func Load(path string) (*Lineup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		l, err := ParseYAML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return l, nil
	}
	entries, err := ParseText(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Lineup{Name: name, Shows: entries}, nil
}

// IntPtr is a small helper for building entries with a priority.
func IntPtr(v int) *int { return &v }
