// Package memstore is a process-local store used by tests and STORE=memory.
// It enforces the same uniqueness rules as the database-backed stores.
package memstore

import (
	"context"
	"maps"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/model"
)

type Store struct {
	mu       sync.RWMutex
	services []model.Service
	bookings []model.Booking
	users    map[string]*model.User
	doctors  []model.Doctor

	// FailWith, when set, is returned (as unavailable) by every call.
	FailWith error
}

func New() *Store {
	return &Store{users: make(map[string]*model.User)}
}

func (s *Store) fail() error {
	return apperr.Unavailable(s.FailWith)
}

func (s *Store) Ping(context.Context) error { return s.fail() }

func (s *Store) ListServices(context.Context) ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := make([]model.Service, len(s.services))
	for i, svc := range s.services {
		svc.Slots = append([]string(nil), svc.Slots...)
		out[i] = svc
	}
	return out, nil
}

func (s *Store) AddService(_ context.Context, svc *model.Service) (model.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return model.WriteResult{}, err
	}
	for _, have := range s.services {
		if have.Name == svc.Name {
			return model.WriteResult{}, apperr.ErrConflict
		}
	}
	svc.ID = uuid.NewString()
	cp := *svc
	cp.Slots = append([]string(nil), svc.Slots...)
	s.services = append(s.services, cp)
	return model.WriteResult{Acknowledged: true, InsertedID: svc.ID}, nil
}

func (s *Store) RemoveService(_ context.Context, name string) (model.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return model.WriteResult{}, err
	}
	for i, have := range s.services {
		if have.Name == name {
			s.services = append(s.services[:i], s.services[i+1:]...)
			return model.WriteResult{Acknowledged: true, Deleted: 1}, nil
		}
	}
	return model.WriteResult{Acknowledged: true}, nil
}

func (s *Store) BookingsOn(_ context.Context, date string) ([]model.Booking, error) {
	return s.filterBookings(func(b model.Booking) bool { return b.Date == date })
}

func (s *Store) BookingsFor(_ context.Context, email string) ([]model.Booking, error) {
	return s.filterBookings(func(b model.Booking) bool { return b.PatientEmail == email })
}

func (s *Store) filterBookings(keep func(model.Booking) bool) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := []model.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) FindBooking(_ context.Context, key model.BookingKey) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	for _, b := range s.bookings {
		if b.Key() == key {
			cp := b
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *Store) InsertBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	for _, have := range s.bookings {
		if have.Key() == b.Key() {
			return apperr.ErrConflict
		}
	}
	b.ID = uuid.NewString()
	s.bookings = append(s.bookings, *b)
	return nil
}

// BookingCount is a test helper.
func (s *Store) BookingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookings)
}

func (s *Store) UpsertUser(_ context.Context, email string, profile model.Profile, role *model.Role) (model.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return model.WriteResult{}, err
	}
	u, ok := s.users[email]
	res := model.WriteResult{Acknowledged: true}
	if !ok {
		u = &model.User{Email: email}
		s.users[email] = u
		res.Upserted = 1
	} else {
		res.Matched = 1
		if !reflect.DeepEqual(u.Profile, profile) || (role != nil && *role != u.Role) {
			res.Modified = 1
		}
	}
	u.Profile = maps.Clone(profile)
	if role != nil {
		u.Role = *role
	}
	return res, nil
}

func (s *Store) SetRole(_ context.Context, email string, role model.Role) (model.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return model.WriteResult{}, err
	}
	u, ok := s.users[email]
	if !ok {
		return model.WriteResult{}, apperr.ErrNotFound
	}
	res := model.WriteResult{Acknowledged: true, Matched: 1}
	if u.Role != role {
		u.Role = role
		res.Modified = 1
	}
	return res, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	u, ok := s.users[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	cp.Profile = maps.Clone(u.Profile)
	return &cp, nil
}

func (s *Store) ListUsers(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		cp.Profile = maps.Clone(u.Profile)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) ListDoctors(context.Context) ([]model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	return append([]model.Doctor{}, s.doctors...), nil
}

func (s *Store) AddDoctor(_ context.Context, d *model.Doctor) (model.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return model.WriteResult{}, err
	}
	for _, have := range s.doctors {
		if have.Email == d.Email {
			return model.WriteResult{}, apperr.ErrConflict
		}
	}
	d.ID = uuid.NewString()
	s.doctors = append(s.doctors, *d)
	return model.WriteResult{Acknowledged: true, InsertedID: d.ID}, nil
}

func (s *Store) RemoveDoctor(_ context.Context, email string) (model.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return model.WriteResult{}, err
	}
	for i, have := range s.doctors {
		if have.Email == email {
			s.doctors = append(s.doctors[:i], s.doctors[i+1:]...)
			return model.WriteResult{Acknowledged: true, Deleted: 1}, nil
		}
	}
	return model.WriteResult{Acknowledged: true}, nil
}
