package booking

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"doctors-portal-api/internal/model"
)

// Repository is the slice of the persistent store the booking engine needs.
type Repository interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	AddService(ctx context.Context, s *model.Service) (model.WriteResult, error)
	RemoveService(ctx context.Context, name string) (model.WriteResult, error)
	BookingsOn(ctx context.Context, date string) ([]model.Booking, error)
	BookingsFor(ctx context.Context, email string) ([]model.Booking, error)
	FindBooking(ctx context.Context, key model.BookingKey) (*model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
}

// Notifier receives accepted bookings. Notify must not block.
type Notifier interface {
	Notify(b model.Booking)
}

type Service struct {
	repo     Repository
	notifier Notifier
	catalog  *cache.Cache
	now      func() time.Time
}

type Option func(*Service)

// WithCatalogCache caches the service catalog for ttl. Zero disables caching.
func WithCatalogCache(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.catalog = cache.New(ttl, 2*ttl)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, n Notifier, opts ...Option) *Service {
	s := &Service{repo: repo, notifier: n, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

const catalogKey = "services"

// Services returns the full catalog. Callers get their own copy.
func (s *Service) Services(ctx context.Context) ([]model.Service, error) {
	if s.catalog != nil {
		if v, ok := s.catalog.Get(catalogKey); ok {
			return cloneServices(v.([]model.Service)), nil
		}
	}
	list, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	if s.catalog != nil {
		s.catalog.SetDefault(catalogKey, cloneServices(list))
	}
	return list, nil
}

func (s *Service) ServiceNames(ctx context.Context) ([]model.ServiceName, error) {
	list, err := s.Services(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ServiceName, len(list))
	for i := range list {
		out[i] = model.ServiceName{Name: list[i].Name}
	}
	return out, nil
}

func (s *Service) AddService(ctx context.Context, svc *model.Service) (model.WriteResult, error) {
	res, err := s.repo.AddService(ctx, svc)
	s.invalidate()
	return res, err
}

func (s *Service) RemoveService(ctx context.Context, name string) (model.WriteResult, error) {
	res, err := s.repo.RemoveService(ctx, name)
	s.invalidate()
	return res, err
}

func (s *Service) invalidate() {
	if s.catalog != nil {
		s.catalog.Delete(catalogKey)
	}
}

func cloneServices(in []model.Service) []model.Service {
	out := make([]model.Service, len(in))
	for i, svc := range in {
		svc.Slots = append([]string(nil), svc.Slots...)
		out[i] = svc
	}
	return out
}
