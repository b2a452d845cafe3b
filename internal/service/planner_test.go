package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stage-planner/internal/allocator"
	"github.com/iliyamo/stage-planner/internal/config"
	"github.com/iliyamo/stage-planner/internal/lineup"
	"github.com/iliyamo/stage-planner/internal/logger"
	"github.com/iliyamo/stage-planner/internal/metrics"
	"github.com/iliyamo/stage-planner/internal/repository"
)

func testConfig() config.PlanConfig {
	return config.PlanConfig{
		DefaultPolicy: allocator.DenseMainStage,
		PriorityMin:   1,
		PriorityMax:   10,
		EventsEnabled: true,
	}
}

type fixture struct {
	planner *Planner
	lineups *memLineups
	plans   *memPlans
	events  *recordingPublisher
	metrics *metrics.Metrics
}

func newFixture(cfg config.PlanConfig) *fixture {
	f := &fixture{
		lineups: newMemLineups(),
		plans:   newMemPlans(),
		events:  &recordingPublisher{},
		metrics: metrics.New(),
	}
	f.planner = NewPlanner(f.lineups, f.plans, f.events, cfg, f.metrics, logger.Discard())
	return f
}

// Shows 1 and 2 overlap; show 3 follows show 1 after one turnover slot.
func scenario() lineup.Entries {
	return lineup.Entries{
		{Title: "Opening", Start: 1, End: 3},
		{Title: "Headliner", Start: 2, End: 4, Priority: lineup.IntPtr(9)},
		{Title: "Closing", Start: 5, End: 6},
	}
}

func intp(v int) *int { return &v }

func numbered(es lineup.Entries) lineup.Entries {
	for i := range es {
		es[i].ID = i + 1
	}
	return es
}

func u64p(v uint64) *uint64 { return &v }

func TestCreateLineup(t *testing.T) {
	f := newFixture(testConfig())
	l, err := f.planner.CreateLineup(context.Background(), 4, "  Friday ", intp(1), scenario())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), l.ID)
	assert.Equal(t, "Friday", l.Name)
	require.Len(t, l.Shows, 3)
	assert.Equal(t, 3, l.Shows[2].Position)
	assert.Equal(t, 9, *l.Shows[1].Priority)
}

func TestCreateLineup_Invalid(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()

	_, err := f.planner.CreateLineup(ctx, 1, "", nil, scenario())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.planner.CreateLineup(ctx, 1, "x", intp(-1), scenario())
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, allocator.ErrInvalidTurnover)

	bad := scenario()
	bad[1].Start = 0
	_, err = f.planner.CreateLineup(ctx, 1, "x", nil, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)
	var ie *allocator.IntervalError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 2, ie.Show.ID)

	_, err = f.planner.CreateLineup(ctx, 1, "x", nil, nil)
	assert.ErrorIs(t, err, lineup.ErrEmpty)
}

func TestCreateLineup_RejectsOutOfRangePriority(t *testing.T) {
	f := newFixture(testConfig())
	bad := scenario()
	bad[0].Priority = intp(11)

	_, err := f.planner.CreateLineup(context.Background(), 1, "x", nil, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, lineup.ErrPriorityRange)
	assert.Empty(t, f.lineups.rows)
}

func TestHorizonCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHorizon = 100
	f := newFixture(cfg)
	ctx := context.Background()

	far := scenario()
	far[2].End = 1_000_000_000_000
	_, err := f.planner.CreateLineup(ctx, 1, "x", nil, far)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, ErrHorizonExceeded)

	_, err = f.planner.Execute(numbered(far), RunRequest{}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, ErrHorizonExceeded)

	edge := scenario()
	edge[2].End = 100
	run, err := f.planner.Execute(numbered(edge), RunRequest{}, nil)
	require.NoError(t, err)
	assert.Len(t, run.Result.Assignments, 3)
}

func TestExecute_RejectsOutOfRangePriority(t *testing.T) {
	f := newFixture(testConfig())
	bad := scenario()
	bad[2].Priority = intp(0)

	_, err := f.planner.Execute(numbered(bad), RunRequest{Policy: "popularity"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, lineup.ErrPriorityRange)
}

func TestCreatePlan_Dense(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", intp(1), scenario())
	require.NoError(t, err)

	plan, run, err := f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{})
	require.NoError(t, err)

	assert.Equal(t, "dense", plan.Policy)
	assert.Equal(t, 1, plan.Turnover, "lineup turnover applies")
	assert.Equal(t, 2, plan.Stages)
	assert.Equal(t, 2, plan.MinStages)
	assert.Nil(t, plan.Seed)
	assert.Zero(t, run.Sampled)
	require.Len(t, plan.Assignments, 3)
	assert.Equal(t, 1, plan.Assignments[2].Stage, "closing show reuses stage 1 after turnover")
	assert.Equal(t, 9, *plan.Assignments[1].Priority)
	assert.Nil(t, plan.Assignments[0].Priority)

	stored, err := f.planner.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Assignments, stored.Assignments)

	require.Equal(t, 1, f.events.count())
	ev := f.events.events[0]
	assert.Equal(t, plan.ID, ev.PlanID)
	assert.Equal(t, "Friday", ev.LineupName)
	assert.Equal(t, 3, ev.Shows)
	assert.Equal(t, uint64(4), ev.CreatedBy)

	expected := `
# HELP stageplan_allocations_total Allocation runs that converged, by policy
# TYPE stageplan_allocations_total counter
stageplan_allocations_total{policy="dense"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "stageplan_allocations_total"))
}

func TestCreatePlan_PopularitySamplesMissingPriorities(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", nil, scenario())
	require.NoError(t, err)

	req := RunRequest{Policy: "popularity", Seed: u64p(42)}
	plan, run, err := f.planner.CreatePlan(ctx, l.ID, 4, req)
	require.NoError(t, err)

	assert.Equal(t, 2, run.Sampled)
	require.NotNil(t, plan.Seed)
	assert.Equal(t, uint64(42), *plan.Seed)
	for _, a := range plan.Assignments {
		require.NotNil(t, a.Priority, "show %d", a.ShowID)
		assert.GreaterOrEqual(t, *a.Priority, 1)
		assert.LessOrEqual(t, *a.Priority, 10)
	}
	assert.Equal(t, 9, *plan.Assignments[1].Priority, "given priority kept")

	stored, err := f.lineups.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Shows[0].Priority, "stored lineup untouched")

	again, _, err := f.planner.CreatePlan(ctx, l.ID, 4, req)
	require.NoError(t, err)
	assert.NotEqual(t, plan.ID, again.ID)
	assert.Equal(t, plan.Assignments, again.Assignments, "same seed, same plan")
}

func TestCreatePlan_RandomRecordsSeed(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", nil, scenario())
	require.NoError(t, err)

	plan, _, err := f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{Policy: "random"})
	require.NoError(t, err)
	require.NotNil(t, plan.Seed)

	replay, _, err := f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{Policy: "random", Seed: plan.Seed})
	require.NoError(t, err)
	assert.Equal(t, plan.Assignments, replay.Assignments)
}

func TestCreatePlan_Errors(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", nil, scenario())
	require.NoError(t, err)

	_, _, err = f.planner.CreatePlan(ctx, 99, 4, RunRequest{})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = f.planner.CreatePlan(ctx, l.ID, 5, RunRequest{})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, _, err = f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{Policy: "loudest"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, allocator.ErrUnknownPolicy)

	_, _, err = f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{Turnover: intp(-2)})
	assert.ErrorIs(t, err, allocator.ErrInvalidTurnover)

	assert.Zero(t, f.events.count())
}

func TestCreatePlan_CeilingFails(t *testing.T) {
	cfg := testConfig()
	cfg.MaxStages = 1
	f := newFixture(cfg)
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", nil, scenario())
	require.NoError(t, err)

	_, _, err = f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{})
	var ae *allocator.AllocationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 1, ae.Stages)
	assert.Equal(t, 2, ae.Show.ID)
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.Empty(t, f.plans.rows)
}

func TestExecute_RequestCeilingTightensConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxStages = 5
	f := newFixture(cfg)

	entries := lineup.Entries{{ID: 1, Start: 1, End: 2}, {ID: 2, Start: 1, End: 2}, {ID: 3, Start: 1, End: 2}}
	_, err := f.planner.Execute(entries, RunRequest{MaxStages: 2}, nil)
	assert.ErrorIs(t, err, allocator.ErrAllocationFailed)

	run, err := f.planner.Execute(entries, RunRequest{MaxStages: 9}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Result.Stages)
}

func TestCreatePlan_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(testConfig())
	f.events.fail = true
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", nil, scenario())
	require.NoError(t, err)

	plan, _, err := f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{})
	require.NoError(t, err)
	assert.Contains(t, f.plans.rows, plan.ID)
}

func TestCreatePlan_EventsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EventsEnabled = false
	f := newFixture(cfg)
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", nil, scenario())
	require.NoError(t, err)

	_, _, err = f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{})
	require.NoError(t, err)
	assert.Zero(t, f.events.count())
}

func TestCreatePlan_Concurrent(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", intp(1), scenario())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			_, _, err := f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{Policy: "random", Seed: u64p(seed)})
			errs <- err
		}(uint64(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, f.plans.rows, 16)
	assert.Equal(t, 16, f.events.count())
}

func TestGetPlan_RejectsMalformedID(t *testing.T) {
	f := newFixture(testConfig())
	_, err := f.planner.GetPlan(context.Background(), "../etc")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMinimum(t *testing.T) {
	f := newFixture(testConfig())
	n, err := f.planner.Minimum(lineup.Entries{{ID: 1, Start: 1, End: 3}, {ID: 2, Start: 4, End: 5}}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.planner.Minimum(lineup.Entries{{ID: 1, Start: 3, End: 1}}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlanResult_RebuildsGrid(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()
	l, err := f.planner.CreateLineup(ctx, 4, "Friday", intp(1), scenario())
	require.NoError(t, err)
	plan, run, err := f.planner.CreatePlan(ctx, l.ID, 4, RunRequest{})
	require.NoError(t, err)

	res, err := PlanResult(plan)
	require.NoError(t, err)
	assert.Equal(t, run.Result.Assignments, res.Assignments)
	assert.Equal(t, run.Result.Grid.Rows(), res.Grid.Rows())
	assert.Equal(t, map[int]int{2: 9}, PlanPriorities(plan))
}

func TestListAndDeleteLineups(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()
	first, err := f.planner.CreateLineup(ctx, 4, "Friday", nil, scenario())
	require.NoError(t, err)
	second, err := f.planner.CreateLineup(ctx, 4, "Saturday", nil, scenario())
	require.NoError(t, err)
	_, err = f.planner.CreateLineup(ctx, 5, "Other", nil, scenario())
	require.NoError(t, err)

	got, err := f.planner.ListLineups(ctx, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)

	_, _, err = f.planner.CreatePlan(ctx, first.ID, 4, RunRequest{})
	require.NoError(t, err)
	plans, err := f.planner.ListPlans(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
	_, err = f.planner.ListPlans(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, f.planner.DeleteLineup(ctx, first.ID, 5), repository.ErrForbidden)
	require.NoError(t, f.planner.DeleteLineup(ctx, first.ID, 4))
	_, err = f.planner.GetLineup(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
