// Package service coordinates lineups, the allocator and persistence: it
// turns a stored lineup into a stored plan, publishing an event once the
// plan is saved.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/stage-planner/internal/allocator"
	"github.com/iliyamo/stage-planner/internal/config"
	"github.com/iliyamo/stage-planner/internal/lineup"
	"github.com/iliyamo/stage-planner/internal/metrics"
	"github.com/iliyamo/stage-planner/internal/model"
	"github.com/iliyamo/stage-planner/internal/queue"
	"github.com/iliyamo/stage-planner/internal/repository"
)

// ErrInvalidInput wraps request problems the caller can fix: a missing
// name, a bad interval, a negative turnover or an unknown policy.
var ErrInvalidInput = errors.New("invalid input")

// ErrHorizonExceeded is returned, wrapped in ErrInvalidInput, when a show
// ends after the configured PLAN_MAX_HORIZON slot.
var ErrHorizonExceeded = errors.New("show ends past the slot horizon")

// LineupStore is the lineup persistence the planner needs.
type LineupStore interface {
	Create(ctx context.Context, l *model.Lineup) error
	GetByID(ctx context.Context, id uint64) (*model.Lineup, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Lineup, error)
	Delete(ctx context.Context, id, ownerID uint64) error
}

// PlanStore is the plan persistence the planner needs.
type PlanStore interface {
	Create(ctx context.Context, p *model.Plan) error
	GetByID(ctx context.Context, id string) (*model.Plan, error)
	ListByLineup(ctx context.Context, lineupID uint64) ([]model.Plan, error)
}

// EventPublisher delivers plan.completed events.
type EventPublisher interface {
	PublishPlanCompleted(ctx context.Context, ev queue.PlanCompletedEvent) error
}

// Planner runs allocations.  It holds no per-run state; every call builds
// its own grid, so one Planner serves concurrent requests.
type Planner struct {
	lineups LineupStore
	plans   PlanStore
	events  EventPublisher
	cfg     config.PlanConfig
	metrics *metrics.Metrics
	log     *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewPlanner wires a planner.  events and m may be nil.
func NewPlanner(lineups LineupStore, plans PlanStore, events EventPublisher, cfg config.PlanConfig, m *metrics.Metrics, log *slog.Logger) *Planner {
	return &Planner{
		lineups: lineups,
		plans:   plans,
		events:  events,
		cfg:     cfg,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Config returns the planner's defaults and ceilings.
func (p *Planner) Config() config.PlanConfig { return p.cfg }

// RunRequest describes one allocation.  Zero values select the configured
// defaults: an empty Policy uses the default policy, a nil Turnover the
// default turnover and a zero MaxStages the configured ceiling.
type RunRequest struct {
	Policy    string
	Turnover  *int
	Seed      *uint64
	MaxStages int
}

// Run is the outcome of an allocation together with the inputs actually
// used, so it can be stored or reproduced.
type Run struct {
	Result     *allocator.Result
	Entries    lineup.Entries
	Priorities map[int]int
	// Seed drove the Random policy and priority sampling. It is nil when
	// neither needed randomness.
	Seed *uint64
	// Sampled counts the priorities drawn by the sampler.
	Sampled int
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// checkEntries validates intervals, supplied priorities and the horizon
// ceiling. The grid holds one cell per slot and stage, so the ceiling bounds
// the memory a single run may take.
func (p *Planner) checkEntries(entries lineup.Entries) error {
	if err := entries.Validate(); err != nil {
		return err
	}
	if err := entries.ValidatePriorities(p.cfg.PriorityMin, p.cfg.PriorityMax); err != nil {
		return err
	}
	if p.cfg.MaxHorizon > 0 {
		for _, e := range entries {
			if e.End > p.cfg.MaxHorizon {
				return fmt.Errorf("%w: show %d ends at %d, limit %d", ErrHorizonExceeded, e.ID, e.End, p.cfg.MaxHorizon)
			}
		}
	}
	return nil
}

// resolve fills in the defaults of req.
func (p *Planner) resolve(req RunRequest, lineupTurnover *int) (allocator.Policy, int, error) {
	policy := p.cfg.DefaultPolicy
	if strings.TrimSpace(req.Policy) != "" {
		parsed, err := allocator.ParsePolicy(req.Policy)
		if err != nil {
			return 0, 0, invalid(err)
		}
		policy = parsed
	}

	turnover := p.cfg.DefaultTurnover
	switch {
	case req.Turnover != nil:
		turnover = *req.Turnover
	case lineupTurnover != nil:
		turnover = *lineupTurnover
	}
	if err := allocator.ValidateTurnover(turnover); err != nil {
		return 0, 0, invalid(err)
	}
	return policy, turnover, nil
}

// Execute allocates entries.  Popularity runs over a lineup with unrated
// shows first fill the gaps from the priority sampler; the caller's entries
// are not modified.
func (p *Planner) Execute(entries lineup.Entries, req RunRequest, lineupTurnover *int) (*Run, error) {
	policy, turnover, err := p.resolve(req, lineupTurnover)
	if err != nil {
		return nil, err
	}
	entries = cloneEntries(entries)
	if err := p.checkEntries(entries); err != nil && !errors.Is(err, lineup.ErrEmpty) {
		return nil, invalid(err)
	}

	run := &Run{Entries: entries}
	needSampling := policy == allocator.Popularity && !entries.Complete()
	if policy == allocator.Random || needSampling {
		seed := rand.Uint64()
		if req.Seed != nil {
			seed = *req.Seed
		}
		run.Seed = &seed
	}
	if needSampling {
		sampler, err := lineup.NewSampler(p.cfg.PriorityMin, p.cfg.PriorityMax, rand.NewPCG(*run.Seed, 0x5a4d))
		if err != nil {
			return nil, err
		}
		run.Sampled = sampler.Fill(entries)
	}
	run.Priorities = entries.Priorities()

	maxStages := p.cfg.MaxStages
	if req.MaxStages > 0 && (maxStages == 0 || req.MaxStages < maxStages) {
		maxStages = req.MaxStages
	}
	opts := []allocator.Option{
		allocator.WithPriorities(run.Priorities),
		allocator.WithMaxStages(maxStages),
		allocator.WithMaxPasses(p.cfg.MaxPasses),
		allocator.WithLogger(p.log),
	}
	if run.Seed != nil {
		opts = append(opts, allocator.WithRand(rand.New(rand.NewPCG(*run.Seed, 0x7e57))))
	}

	res, err := allocator.Allocate(entries.Shows(), turnover, policy, opts...)
	if err != nil {
		if errors.Is(err, allocator.ErrAllocationFailed) {
			p.metrics.IncAllocationFailures(policy.String())
			p.log.Warn("allocation hit ceiling", slog.String("policy", policy.String()), slog.Any("error", err))
			return nil, err
		}
		return nil, invalid(err)
	}
	p.metrics.ObserveAllocation(policy.String(), res.Stages, res.Passes, res.Escalations)
	run.Result = res
	return run, nil
}

// Minimum returns the lower bound on stages for shows under turnover.
func (p *Planner) Minimum(entries lineup.Entries, turnover int) (int, error) {
	n, err := allocator.MinimumStages(entries.Shows(), turnover)
	if err != nil {
		return 0, invalid(err)
	}
	return n, nil
}

// CreateLineup validates and stores a new lineup for ownerID.  Shows are
// numbered by position.
func (p *Planner) CreateLineup(ctx context.Context, ownerID uint64, name string, turnover *int, entries lineup.Entries) (*model.Lineup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(errors.New("name is required"))
	}
	if turnover != nil {
		if err := allocator.ValidateTurnover(*turnover); err != nil {
			return nil, invalid(err)
		}
	}
	entries = cloneEntries(entries)
	for i := range entries {
		entries[i].ID = i + 1
	}
	if err := p.checkEntries(entries); err != nil {
		return nil, invalid(err)
	}

	l := &model.Lineup{OwnerID: ownerID, Name: name, Turnover: turnover, Shows: model.ShowsFromEntries(entries)}
	if err := p.lineups.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("store lineup: %w", err)
	}
	p.log.Info("lineup created", slog.Uint64("lineup_id", l.ID), slog.Int("shows", len(l.Shows)))
	return l, nil
}

// GetLineup loads a lineup with its shows.
func (p *Planner) GetLineup(ctx context.Context, id uint64) (*model.Lineup, error) {
	return p.lineups.GetByID(ctx, id)
}

// ListLineups returns the lineups owned by ownerID, without their shows.
func (p *Planner) ListLineups(ctx context.Context, ownerID uint64) ([]model.Lineup, error) {
	return p.lineups.ListByOwner(ctx, ownerID)
}

// DeleteLineup removes a lineup and its plans.  Only the owner may delete it.
func (p *Planner) DeleteLineup(ctx context.Context, id, ownerID uint64) error {
	if err := p.lineups.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	p.log.Info("lineup deleted", slog.Uint64("lineup_id", id))
	return nil
}

// ListPlans returns the plan headers of a lineup, newest first.
func (p *Planner) ListPlans(ctx context.Context, lineupID uint64) ([]model.Plan, error) {
	if _, err := p.lineups.GetByID(ctx, lineupID); err != nil {
		return nil, err
	}
	return p.plans.ListByLineup(ctx, lineupID)
}

// CreatePlan allocates a stored lineup, stores the plan and publishes
// plan.completed.  Only the lineup's owner may plan it.  A failed publish is
// logged and does not fail the call.
func (p *Planner) CreatePlan(ctx context.Context, lineupID, userID uint64, req RunRequest) (*model.Plan, *Run, error) {
	l, err := p.lineups.GetByID(ctx, lineupID)
	if err != nil {
		return nil, nil, err
	}
	if l.OwnerID != userID {
		return nil, nil, repository.ErrForbidden
	}

	run, err := p.Execute(l.Entries(), req, l.Turnover)
	if err != nil {
		return nil, nil, err
	}

	plan := newPlan(p.newID(), l.ID, userID, run)
	if err := p.plans.Create(ctx, plan); err != nil {
		return nil, nil, fmt.Errorf("store plan: %w", err)
	}
	p.log.Info("plan created",
		slog.String("plan_id", plan.ID),
		slog.Uint64("lineup_id", l.ID),
		slog.String("policy", plan.Policy),
		slog.Int("stages", plan.Stages),
		slog.Int("min_stages", plan.MinStages),
		slog.Int("passes", plan.Passes))

	p.publish(ctx, queue.PlanCompletedEvent{
		PlanID:      plan.ID,
		LineupID:    l.ID,
		LineupName:  l.Name,
		Policy:      plan.Policy,
		Turnover:    plan.Turnover,
		Stages:      plan.Stages,
		MinStages:   plan.MinStages,
		Passes:      plan.Passes,
		Shows:       len(plan.Assignments),
		CreatedBy:   userID,
		CompletedAt: p.now(),
	})
	return plan, run, nil
}

func (p *Planner) publish(ctx context.Context, ev queue.PlanCompletedEvent) {
	if p.events == nil || !p.cfg.EventsEnabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.events.PublishPlanCompleted(ctx, ev); err != nil {
		p.log.Warn("plan.completed not published", slog.String("plan_id", ev.PlanID), slog.Any("error", err))
	}
}

// GetPlan loads a stored plan with its assignments.
func (p *Planner) GetPlan(ctx context.Context, id string) (*model.Plan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	return p.plans.GetByID(ctx, id)
}

func newPlan(id string, lineupID, userID uint64, run *Run) *model.Plan {
	res := run.Result
	plan := &model.Plan{
		ID:          id,
		LineupID:    lineupID,
		Policy:      res.Policy.String(),
		Turnover:    res.Turnover,
		Seed:        run.Seed,
		Stages:      res.Stages,
		MinStages:   res.MinStages,
		Passes:      res.Passes,
		Escalations: res.Escalations,
		CreatedBy:   userID,
		Assignments: make([]model.PlanAssignment, len(res.Assignments)),
	}
	for i, a := range res.Assignments {
		pa := model.PlanAssignment{ShowID: a.ShowID, Stage: a.Stage, Start: a.Start, End: a.End}
		if prio, ok := run.Priorities[a.ShowID]; ok {
			pa.Priority = lineup.IntPtr(prio)
		}
		plan.Assignments[i] = pa
	}
	return plan
}

func cloneEntries(entries lineup.Entries) lineup.Entries {
	out := make(lineup.Entries, len(entries))
	for i, e := range entries {
		out[i] = e
		if e.Priority != nil {
			out[i].Priority = lineup.IntPtr(*e.Priority)
		}
	}
	return out
}
