package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stage-planner/internal/model"
)

// LineupRepo persists lineups and their shows.
type LineupRepo struct {
	db *sql.DB
}

// NewLineupRepo constructs a LineupRepo with the given DB handle.
func NewLineupRepo(db *sql.DB) *LineupRepo {
	return &LineupRepo{db: db}
}

// Create inserts the lineup and all of its shows in one transaction.  On
// success ID and CreatedAt are populated on l.
func (r *LineupRepo) Create(ctx context.Context, l *model.Lineup) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	res, err := tx.ExecContext(ctx,
		"INSERT INTO lineups (owner_id, name, turnover) VALUES (?, ?, ?)",
		l.OwnerID, l.Name, nullInt(l.Turnover))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO lineup_shows (lineup_id, position, title, start_slot, end_slot, priority) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, s := range l.Shows {
		if _, err := stmt.ExecContext(ctx, l.ID, s.Position, s.Title, s.Start, s.End, nullInt(s.Priority)); err != nil {
			if isDuplicateKey(err) {
				return ErrConflict
			}
			return err
		}
	}

	// Read back the DB default timestamp.
	if err := tx.QueryRowContext(ctx, "SELECT created_at FROM lineups WHERE id = ?", l.ID).Scan(&l.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID loads a lineup with its shows ordered by position.  It returns
// ErrNotFound if there is no matching row.
func (r *LineupRepo) GetByID(ctx context.Context, id uint64) (*model.Lineup, error) {
	var (
		l        model.Lineup
		turnover sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, turnover, created_at FROM lineups WHERE id = ?", id).
		Scan(&l.ID, &l.OwnerID, &l.Name, &turnover, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.Turnover = intPtr(turnover)

	rows, err := r.db.QueryContext(ctx,
		`SELECT position, title, start_slot, end_slot, priority
		 FROM lineup_shows WHERE lineup_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			s    model.LineupShow
			prio sql.NullInt64
		)
		if err := rows.Scan(&s.Position, &s.Title, &s.Start, &s.End, &prio); err != nil {
			return nil, err
		}
		s.Priority = intPtr(prio)
		l.Shows = append(l.Shows, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByOwner returns the lineups of one planner, newest first, without
// their shows.
func (r *LineupRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Lineup, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, owner_id, name, turnover, created_at FROM lineups WHERE owner_id = ? ORDER BY id DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Lineup{}
	for rows.Next() {
		var (
			l        model.Lineup
			turnover sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Name, &turnover, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Turnover = intPtr(turnover)
		result = append(result, l)
	}
	return result, rows.Err()
}

// Delete removes a lineup owned by ownerID.  Shows and plans go with it
// through ON DELETE CASCADE.  ErrNotFound is returned for a missing lineup
// and ErrForbidden for one owned by someone else.
func (r *LineupRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM lineups WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM lineups WHERE id = ? AND owner_id = ?", id, ownerID)
	return err
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
