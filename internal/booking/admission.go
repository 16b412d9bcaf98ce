package booking

import (
	"context"
	"errors"
	"fmt"

	"doctors-portal-api/internal/access"
	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/metrics"
	"doctors-portal-api/internal/model"
)

// Admission is the outcome of a booking request. A rejected duplicate is a
// normal result carrying the booking that already holds the key.
type Admission struct {
	Accepted bool          `json:"accepted"`
	Record   model.Booking `json:"record"`
}

// Submit admits b unless a booking with the same (treatment, date,
// patientEmail) exists. The first lookup is a fast path; the store's
// uniqueness constraint is authoritative, and losing that race is answered by
// re-reading the winner.
func (s *Service) Submit(ctx context.Context, b model.Booking) (Admission, error) {
	key := b.Key()

	existing, err := s.repo.FindBooking(ctx, key)
	switch {
	case err == nil:
		metrics.Bookings.WithLabelValues("duplicate").Inc()
		return Admission{Accepted: false, Record: *existing}, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return Admission{}, err
	}

	b.ID = ""
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	if err := s.repo.InsertBooking(ctx, &b); err != nil {
		if !errors.Is(err, apperr.ErrConflict) {
			return Admission{}, err
		}
		metrics.BookingRaces.Inc()
		winner, ferr := s.repo.FindBooking(ctx, key)
		if ferr != nil {
			return Admission{}, fmt.Errorf("re-read after duplicate insert: %w", ferr)
		}
		metrics.Bookings.WithLabelValues("duplicate").Inc()
		return Admission{Accepted: false, Record: *winner}, nil
	}

	metrics.Bookings.WithLabelValues("accepted").Inc()
	if s.notifier != nil {
		s.notifier.Notify(b)
	}
	return Admission{Accepted: true, Record: b}, nil
}

// BookingsFor lists the bookings of patient. Only the patient may list them.
func (s *Service) BookingsFor(ctx context.Context, patient string) ([]model.Booking, error) {
	if patient == "" {
		return nil, apperr.Invalid("patient required")
	}
	if id := access.Identity(ctx); id == "" || id != patient {
		return nil, apperr.ErrForbidden
	}
	return s.repo.BookingsFor(ctx, patient)
}
