package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stage-planner/internal/model"
)

// PlanRepo persists allocation runs and their assignments.
type PlanRepo struct {
	db *sql.DB
}

// NewPlanRepo constructs a PlanRepo with the given DB handle.
func NewPlanRepo(db *sql.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Create stores the plan header and every assignment in one transaction.
// The plan ID is chosen by the caller; a reused ID yields ErrConflict.
func (r *PlanRepo) Create(ctx context.Context, p *model.Plan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seed sql.NullInt64
	if p.Seed != nil {
		seed = sql.NullInt64{Int64: int64(*p.Seed), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO plans (id, lineup_id, policy, turnover, seed, stages, min_stages, passes, escalations, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LineupID, p.Policy, p.Turnover, seed, p.Stages, p.MinStages, p.Passes, p.Escalations, p.CreatedBy)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO plan_assignments (plan_id, show_position, stage, start_slot, end_slot, priority) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, a := range p.Assignments {
		if _, err := stmt.ExecContext(ctx, p.ID, a.ShowID, a.Stage, a.Start, a.End, nullInt(a.Priority)); err != nil {
			return err
		}
	}

	if err := tx.QueryRowContext(ctx, "SELECT created_at FROM plans WHERE id = ?", p.ID).Scan(&p.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

const planColumns = "id, lineup_id, policy, turnover, seed, stages, min_stages, passes, escalations, created_by, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (model.Plan, error) {
	var (
		p    model.Plan
		seed sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.LineupID, &p.Policy, &p.Turnover, &seed,
		&p.Stages, &p.MinStages, &p.Passes, &p.Escalations, &p.CreatedBy, &p.CreatedAt)
	if seed.Valid {
		v := uint64(seed.Int64)
		p.Seed = &v
	}
	return p, err
}

// GetByID loads a plan with its assignments ordered by show.  It returns
// ErrNotFound if there is no matching row.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx, "SELECT "+planColumns+" FROM plans WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT show_position, stage, start_slot, end_slot, priority
		 FROM plan_assignments WHERE plan_id = ? ORDER BY show_position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	p.Assignments = []model.PlanAssignment{}
	for rows.Next() {
		var (
			a    model.PlanAssignment
			prio sql.NullInt64
		)
		if err := rows.Scan(&a.ShowID, &a.Stage, &a.Start, &a.End, &prio); err != nil {
			return nil, err
		}
		a.Priority = intPtr(prio)
		p.Assignments = append(p.Assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByLineup returns the plan headers of a lineup, newest first.
func (r *PlanRepo) ListByLineup(ctx context.Context, lineupID uint64) ([]model.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+planColumns+" FROM plans WHERE lineup_id = ? ORDER BY created_at DESC, id ASC", lineupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
