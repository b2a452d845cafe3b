package allocator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInterval is returned for a show whose start is below 1 or
	// after its end.
	ErrInvalidInterval = errors.New("invalid show interval")

	// ErrInvalidShowID is returned when show IDs are not positive and unique.
	ErrInvalidShowID = errors.New("show ids must be positive and unique")

	// ErrInvalidTurnover is returned when the turnover window is negative.
	ErrInvalidTurnover = errors.New("turnover must be a non-negative integer")

	// ErrNoStageAvailable signals that no stage can host a show at the
	// current stage count. Allocate recovers from it by escalating.
	ErrNoStageAvailable = errors.New("no stage available")

	// ErrAllocationFailed is returned when a stage or pass ceiling stops
	// escalation before every show was placed.
	ErrAllocationFailed = errors.New("allocation failed")

	// ErrMissingPriority is returned when the Popularity policy is used and
	// a show has no priority.
	ErrMissingPriority = errors.New("missing show priority")

	// ErrUnknownPolicy is returned for a policy name or value that is not
	// one of DenseMainStage, Random or Popularity.
	ErrUnknownPolicy = errors.New("unknown allocation policy")

	// ErrCellTaken is returned by Grid.Reserve when a target cell is not
	// free. Allocate never triggers it because it checks availability first.
	ErrCellTaken = errors.New("grid cell is not free")
)

// IntervalError identifies the show that failed interval validation.
type IntervalError struct {
	Show Show
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("show %d: invalid interval [%d,%d]", e.Show.ID, e.Show.Start, e.Show.End)
}

func (e *IntervalError) Unwrap() error { return ErrInvalidInterval }

// AllocationError reports the stage count of the last attempted pass and the
// first show that could not be placed in it.
type AllocationError struct {
	Stages int
	Passes int
	Show   Show
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation failed after %d passes at %d stages: show %d [%d,%d] could not be placed",
		e.Passes, e.Stages, e.Show.ID, e.Show.Start, e.Show.End)
}

func (e *AllocationError) Unwrap() error { return ErrAllocationFailed }
