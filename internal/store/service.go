package store

import (
	"context"

	"github.com/google/uuid"

	"doctors-portal-api/internal/model"
)

func (s *Store) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, slots FROM services ORDER BY seq`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Slots); err != nil {
			return nil, classify(err)
		}
		out = append(out, svc)
	}
	return out, classify(rows.Err())
}

func (s *Store) AddService(ctx context.Context, svc *model.Service) (model.WriteResult, error) {
	id := uuid.New().String()
	slots := svc.Slots
	if slots == nil {
		slots = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO services (id, name, slots) VALUES ($1,$2,$3)`,
		id, svc.Name, slots,
	)
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	svc.ID = id
	return model.WriteResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *Store) RemoveService(ctx context.Context, name string) (model.WriteResult, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM services WHERE name = $1`, name)
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	return model.WriteResult{Acknowledged: true, Deleted: tag.RowsAffected()}, nil
}
