package booking

import (
	"context"

	"doctors-portal-api/internal/model"
)

// AvailableSlots returns every service with the slots already booked on date
// removed. The two reads are not snapshot-consistent: a slot reported open
// here can be taken by the time the caller acts on it.
func (s *Service) AvailableSlots(ctx context.Context, date string) ([]model.Service, error) {
	services, err := s.Services(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.BookingsOn(ctx, date)
	if err != nil {
		return nil, err
	}
	return FilterAvailable(services, bookings), nil
}

// FilterAvailable subtracts booked slots from each catalog, keeping catalog
// order. bookings are expected to belong to a single date.
func FilterAvailable(services []model.Service, bookings []model.Booking) []model.Service {
	booked := make(map[string]map[string]struct{}, len(services))
	for _, b := range bookings {
		set, ok := booked[b.Treatment]
		if !ok {
			set = make(map[string]struct{})
			booked[b.Treatment] = set
		}
		set[b.Slot] = struct{}{}
	}

	out := make([]model.Service, len(services))
	for i, svc := range services {
		taken := booked[svc.Name]
		open := make([]string, 0, len(svc.Slots))
		for _, slot := range svc.Slots {
			if _, ok := taken[slot]; ok {
				continue
			}
			open = append(open, slot)
		}
		svc.Slots = open
		out[i] = svc
	}
	return out
}
