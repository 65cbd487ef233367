package analysts

import (
	"context"
	"database/sql"
	"fmt"

	"soclite/internal/errs"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Role) error {
	const q = `INSERT INTO analysts (level, email) VALUES ($1, $2) RETURNING id`
	return s.db.QueryRowContext(ctx, q, r.Level, r.Email).Scan(&r.ID)
}

func (s *Store) Update(ctx context.Context, r *Role) error {
	const q = `UPDATE analysts SET level = $1, email = $2 WHERE id = $3`
	res, err := s.db.ExecContext(ctx, q, r.Level, r.Email, r.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("analyst %d: %w", r.ID, errs.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analysts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("analyst %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, level, email FROM analysts ORDER BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoles(rows)
}

func (s *Store) ByLevel(ctx context.Context, level string) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, level, email FROM analysts WHERE level = $1`, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoles(rows)
}

func scanRoles(rows *sql.Rows) ([]Role, error) {
	var res []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Level, &r.Email); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}
