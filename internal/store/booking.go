package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"doctors-portal-api/internal/model"
)

const bookingCols = `id, treatment, date, patient_email, slot, patient, created_at`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.Treatment, &b.Date, &b.PatientEmail, &b.Slot, &b.Patient, &b.CreatedAt)
	return b, err
}

func (s *Store) queryBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, b)
	}
	return out, classify(rows.Err())
}

func (s *Store) BookingsOn(ctx context.Context, date string) ([]model.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE date = $1 ORDER BY created_at`, date)
}

func (s *Store) BookingsFor(ctx context.Context, email string) ([]model.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE patient_email = $1 ORDER BY created_at`, email)
}

func (s *Store) FindBooking(ctx context.Context, key model.BookingKey) (*model.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx,
		`SELECT `+bookingCols+` FROM bookings
		 WHERE treatment = $1 AND date = $2 AND patient_email = $3`,
		key.Treatment, key.Date, key.PatientEmail,
	))
	if err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

// InsertBooking relies on bookings_patient_day_key; a concurrent identical
// insert surfaces as apperr.ErrConflict.
func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
	id := uuid.New().String()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO bookings (id, treatment, date, patient_email, slot, patient, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at`,
		id, b.Treatment, b.Date, b.PatientEmail, b.Slot, b.Patient, b.CreatedAt,
	).Scan(&b.CreatedAt)
	if err != nil {
		return classify(err)
	}
	b.ID = id
	return nil
}
