package store

import (
	"context"

	"github.com/google/uuid"

	"doctors-portal-api/internal/model"
)

func (s *Store) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, specialty, img FROM doctors ORDER BY seq`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []model.Doctor{}
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Specialty, &d.Image); err != nil {
			return nil, classify(err)
		}
		out = append(out, d)
	}
	return out, classify(rows.Err())
}

func (s *Store) AddDoctor(ctx context.Context, d *model.Doctor) (model.WriteResult, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO doctors (id, name, email, specialty, img) VALUES ($1,$2,$3,$4,$5)`,
		id, d.Name, d.Email, d.Specialty, d.Image,
	)
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	d.ID = id
	return model.WriteResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *Store) RemoveDoctor(ctx context.Context, email string) (model.WriteResult, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM doctors WHERE email = $1`, email)
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	return model.WriteResult{Acknowledged: true, Deleted: tag.RowsAffected()}, nil
}
