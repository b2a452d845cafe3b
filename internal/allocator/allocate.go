package allocator

import (
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
)

// Assignment places one show on one stage. Start and End are the show's own
// slots; allocation never moves a show in time.
type Assignment struct {
	ShowID int `json:"show_id"`
	Stage  int `json:"stage"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// Result is the outcome of a converged allocation run.
type Result struct {
	Policy      Policy       `json:"policy"`
	Turnover    int          `json:"turnover"`
	Stages      int          `json:"stages"`
	MinStages   int          `json:"min_stages"`
	Passes      int          `json:"passes"`
	Escalations int          `json:"escalations"`
	Assignments []Assignment `json:"assignments"`
	// Grid is the trimmed occupancy grid of the converged pass.
	Grid *Grid `json:"-"`
}

// ByStage groups the assignments per stage, index 0 holding stage 1, each
// group ordered by start slot.
func (r *Result) ByStage() [][]Assignment {
	out := make([][]Assignment, r.Stages)
	for _, a := range r.Assignments {
		if a.Stage >= 1 && a.Stage <= r.Stages {
			out[a.Stage-1] = append(out[a.Stage-1], a)
		}
	}
	for _, group := range out {
		sort.Slice(group, func(i, j int) bool { return group[i].Start < group[j].Start })
	}
	return out
}

// StageOf returns the stage hosting the show.
func (r *Result) StageOf(showID int) (int, bool) {
	for _, a := range r.Assignments {
		if a.ShowID == showID {
			return a.Stage, true
		}
	}
	return 0, false
}

type options struct {
	priorities    map[int]int
	rng           *rand.Rand
	maxStages     int
	maxPasses     int
	initialStages int
	logger        *slog.Logger
}

// Option configures a single Allocate call.
type Option func(*options)

// WithPriorities supplies the priority of every show by ID. It is required
// by the Popularity policy and ignored by the others.
func WithPriorities(priorities map[int]int) Option {
	return func(o *options) {
		o.priorities = priorities
	}
}

// WithRand injects the source used by the Random policy. Pass a seeded
// generator for reproducible plans.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithMaxStages caps escalation. When a pass fails at the cap Allocate
// returns an *AllocationError. Zero means no cap.
func WithMaxStages(n int) Option {
	return func(o *options) {
		o.maxStages = n
	}
}

// WithMaxPasses caps the number of placement passes. Zero means no cap.
func WithMaxPasses(n int) Option {
	return func(o *options) {
		o.maxPasses = n
	}
}

// WithInitialStages starts escalation at n stages instead of the lower bound.
func WithInitialStages(n int) Option {
	return func(o *options) {
		o.initialStages = n
	}
}

// WithLogger receives debug records for every escalation.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Allocate assigns every show to a stage under policy. It validates the
// input, then runs placement passes starting from the lower bound (or the
// WithInitialStages override). A pass that runs out of stages is discarded
// and the next pass starts from an empty grid with one more stage. The
// converged grid is trimmed before the assignment is derived from it.
func Allocate(shows []Show, turnover int, policy Policy, opts ...Option) (*Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !policy.Valid() {
		return nil, ErrUnknownPolicy
	}
	minStages, err := MinimumStages(shows, turnover)
	if err != nil {
		return nil, err
	}
	tiers, err := Tiers(shows, policy, o.priorities)
	if err != nil {
		return nil, err
	}

	res := &Result{Policy: policy, Turnover: turnover, MinStages: minStages}
	if len(shows) == 0 {
		res.Grid = NewGrid(0, 0, turnover)
		res.Assignments = []Assignment{}
		return res, nil
	}

	stages := minStages
	if o.initialStages > 0 {
		stages = o.initialStages
	}
	if o.maxStages > 0 && stages > o.maxStages {
		stages = o.maxStages
	}
	rng := o.rng
	if policy == Random && rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	grid := NewGrid(stages, Horizon(shows), turnover)
	for {
		res.Passes++
		failed, err := placeAll(grid, tiers, policy, rng)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrNoStageAvailable) {
			return nil, err
		}
		if (o.maxStages > 0 && stages >= o.maxStages) || (o.maxPasses > 0 && res.Passes >= o.maxPasses) {
			return nil, &AllocationError{Stages: stages, Passes: res.Passes, Show: failed}
		}
		o.logger.Debug("stages exhausted, escalating",
			slog.String("policy", policy.String()),
			slog.Int("stages", stages),
			slog.Int("show", failed.ID),
			slog.Int("pass", res.Passes))
		stages++
		res.Escalations++
		grid.Grow(1)
		grid.Reset()
	}

	grid.Trim()
	res.Stages = stages
	res.Grid = grid
	res.Assignments = grid.Assignments()
	return res, nil
}

// placeAll runs one placement pass over the tiers. On exhaustion it returns
// the show that found no stage together with ErrNoStageAvailable.
func placeAll(grid *Grid, tiers [][]Show, policy Policy, rng *rand.Rand) (Show, error) {
	for _, tier := range tiers {
		for _, s := range tier {
			stage, err := SelectStage(grid.Available(s), policy, rng)
			if err != nil {
				return s, err
			}
			if err := grid.Reserve(stage, s); err != nil {
				return s, err
			}
		}
	}
	return Show{}, nil
}
