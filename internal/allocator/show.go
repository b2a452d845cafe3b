package allocator

import "fmt"

// Show is a single performance. ID is the 1-based position of the show in
// its lineup; it is stable and is what reports and collaborators refer to.
// Start and End are inclusive timeslots.
type Show struct {
	ID    int `json:"id"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Length returns the number of slots the show is playing.
func (s Show) Length() int { return s.End - s.Start + 1 }

// Validate reports an *IntervalError when Start < 1 or Start > End.
func (s Show) Validate() error {
	if s.Start < 1 || s.Start > s.End {
		return &IntervalError{Show: s}
	}
	return nil
}

func (s Show) String() string {
	return fmt.Sprintf("show %d [%d,%d]", s.ID, s.Start, s.End)
}

// ValidateShows returns the error of the first invalid show, in input order.
// Show IDs must be positive and unique because grid cells refer to them.
func ValidateShows(shows []Show) error {
	seen := make(map[int]struct{}, len(shows))
	for _, s := range shows {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.ID]; dup || s.ID < 1 {
			return fmt.Errorf("%w: show %d", ErrInvalidShowID, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// ValidateTurnover rejects negative turnover windows.
func ValidateTurnover(turnover int) error {
	if turnover < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTurnover, turnover)
	}
	return nil
}

// Horizon returns the last timeslot of the universe spanned by shows, the
// largest End. It is 0 for an empty lineup.
func Horizon(shows []Show) int {
	last := 0
	for _, s := range shows {
		if s.End > last {
			last = s.End
		}
	}
	return last
}
