package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/stage-planner/internal/model"
	"github.com/iliyamo/stage-planner/internal/queue"
	"github.com/iliyamo/stage-planner/internal/repository"
)

type memLineups struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.Lineup
}

func newMemLineups() *memLineups { return &memLineups{rows: map[uint64]model.Lineup{}} }

func (m *memLineups) Create(_ context.Context, l *model.Lineup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	l.ID = m.next
	l.CreatedAt = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.rows[l.ID] = *l
	return nil
}

func (m *memLineups) GetByID(_ context.Context, id uint64) (*model.Lineup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (m *memLineups) ListByOwner(_ context.Context, ownerID uint64) ([]model.Lineup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Lineup{}
	for id := m.next; id > 0; id-- {
		if l, ok := m.rows[id]; ok && l.OwnerID == ownerID {
			l.Shows = nil
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLineups) Delete(_ context.Context, id, ownerID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if l.OwnerID != ownerID {
		return repository.ErrForbidden
	}
	delete(m.rows, id)
	return nil
}

type memPlans struct {
	mu   sync.Mutex
	rows map[string]model.Plan
	err  error
}

func newMemPlans() *memPlans { return &memPlans{rows: map[string]model.Plan{}} }

func (m *memPlans) Create(_ context.Context, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[p.ID]; ok {
		return repository.ErrConflict
	}
	p.CreatedAt = time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	m.rows[p.ID] = *p
	return nil
}

func (m *memPlans) GetByID(_ context.Context, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memPlans) ListByLineup(_ context.Context, lineupID uint64) ([]model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Plan{}
	for _, p := range m.rows {
		if p.LineupID == lineupID {
			p.Assignments = nil
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.PlanCompletedEvent
	fail   bool
}

func (r *recordingPublisher) PublishPlanCompleted(_ context.Context, ev queue.PlanCompletedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broker down")
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
