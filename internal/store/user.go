package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"doctors-portal-api/internal/model"
)

// UpsertUser replaces the profile of email, creating the row when missing.
// role is written only when non-nil; an empty role clears admin.
func (s *Store) UpsertUser(ctx context.Context, email string, profile model.Profile, role *model.Role) (model.WriteResult, error) {
	if profile == nil {
		profile = model.Profile{}
	}
	var roleVal *string
	if role != nil && *role != "" {
		r := string(*role)
		roleVal = &r
	}

	// the WHERE on DO UPDATE makes an unchanged row return nothing
	var inserted bool
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, profile, role) VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE
		   SET profile = EXCLUDED.profile,
		       role = CASE WHEN $4 THEN EXCLUDED.role ELSE users.role END,
		       updated_at = NOW()
		 WHERE users.profile IS DISTINCT FROM EXCLUDED.profile
		    OR ($4 AND users.role IS DISTINCT FROM EXCLUDED.role)
		 RETURNING (xmax = 0)`,
		email, profile, roleVal, role != nil,
	).Scan(&inserted)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.WriteResult{Acknowledged: true, Matched: 1}, nil
	case err != nil:
		return model.WriteResult{}, classify(err)
	case inserted:
		return model.WriteResult{Acknowledged: true, Upserted: 1}, nil
	default:
		return model.WriteResult{Acknowledged: true, Matched: 1, Modified: 1}, nil
	}
}

func (s *Store) SetRole(ctx context.Context, email string, role model.Role) (model.WriteResult, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW()
		 WHERE email = $1 AND role IS DISTINCT FROM $2`,
		email, string(role),
	)
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	if tag.RowsAffected() == 1 {
		return model.WriteResult{Acknowledged: true, Matched: 1, Modified: 1}, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists); err != nil {
		return model.WriteResult{}, classify(err)
	}
	if !exists {
		return model.WriteResult{}, classify(pgx.ErrNoRows)
	}
	return model.WriteResult{Acknowledged: true, Matched: 1}, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u    model.User
		role *string
	)
	if err := row.Scan(&u.Email, &role, &u.Profile); err != nil {
		return u, err
	}
	if role != nil {
		u.Role = model.Role(*role)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT email, role, profile FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT email, role, profile FROM users ORDER BY email`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, u)
	}
	return out, classify(rows.Err())
}
