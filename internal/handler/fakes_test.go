package handler_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/stage-planner/internal/model"
	"github.com/iliyamo/stage-planner/internal/repository"
	"github.com/iliyamo/stage-planner/internal/utils"
)

type memUsers struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, email, password, role string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.rows {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	m.next++
	m.rows[m.next] = model.User{ID: m.next, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	return m.next, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type memToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]*memToken
}

func newMemTokens() *memTokens { return &memTokens{rows: map[string]*memToken{}} }

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[hash] = &memToken{userID: userID, exp: exp}
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (m *memTokens) RotateRefresh(_ context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[oldHash]
	if !ok || t.revoked || t.userID != userID {
		return repository.ErrNotFound
	}
	t.revoked = true
	m.rows[newHash] = &memToken{userID: userID, exp: exp}
	return nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[hash]; ok {
		t.revoked = true
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (m *memTokens) active(userID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.rows {
		if t.userID == userID && !t.revoked {
			n++
		}
	}
	return n
}

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
	l.CreatedAt = time.Now().UTC()
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
}

func newMemPlans() *memPlans { return &memPlans{rows: map[string]model.Plan{}} }

func (m *memPlans) Create(_ context.Context, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = time.Now().UTC()
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
