package handler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"doctors-portal-api/internal/access"
	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/auth"
	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/directory"
	"doctors-portal-api/internal/handler"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store/memstore"
)

func setup(t *testing.T) (*handler.Handler, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	iss, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)
	h := handler.New(booking.NewService(st, nil), directory.New(st, iss), nil)
	return h, st
}

func code(err error) codes.Code {
	s, _ := status.FromError(err)
	return s.Code()
}

func seedCleaning(t *testing.T, h *handler.Handler) {
	t.Helper()
	_, err := h.AddService(context.Background(), &model.Service{
		Name:  "Cleaning",
		Slots: []string{"8am", "9am", "10am"},
	})
	require.NoError(t, err)
}

func TestAvailableSlots(t *testing.T) {
	h, _ := setup(t)
	seedCleaning(t, h)
	ctx := context.Background()

	_, err := h.SubmitBooking(ctx, &model.Booking{
		Treatment: "Cleaning", Date: "Jan 1, 2022", Slot: "9am",
		PatientEmail: "a@x.com", Patient: "A",
	})
	require.NoError(t, err)

	resp, err := h.AvailableSlots(ctx, &handler.DateRequest{Date: "Jan 1, 2022"})
	require.NoError(t, err)
	require.Len(t, resp.Services, 1)
	assert.Equal(t, []string{"8am", "10am"}, resp.Services[0].Slots)

	_, err = h.AvailableSlots(ctx, &handler.DateRequest{})
	assert.Equal(t, codes.InvalidArgument, code(err))
}

func TestSubmitBookingDuplicate(t *testing.T) {
	h, st := setup(t)
	ctx := context.Background()
	b := model.Booking{
		Treatment: "Cleaning", Date: "Jan 1, 2022", Slot: "9am",
		PatientEmail: "a@x.com", Patient: "A",
	}

	first, err := h.SubmitBooking(ctx, &b)
	require.NoError(t, err)
	assert.True(t, first.Accepted)

	other := b
	other.Slot = "10am"
	second, err := h.SubmitBooking(ctx, &other)
	require.NoError(t, err)
	assert.False(t, second.Accepted)
	assert.Equal(t, "9am", second.Record.Slot)
	assert.Equal(t, 1, st.BookingCount())
}

func TestSubmitBookingValidation(t *testing.T) {
	h, _ := setup(t)

	tests := []struct {
		name string
		req  *model.Booking
	}{
		{"missing treatment", &model.Booking{Date: "d", Slot: "s", PatientEmail: "a@x.com"}},
		{"missing date", &model.Booking{Treatment: "t", Slot: "s", PatientEmail: "a@x.com"}},
		{"missing slot", &model.Booking{Treatment: "t", Date: "d", PatientEmail: "a@x.com"}},
		{"bad email", &model.Booking{Treatment: "t", Date: "d", Slot: "s", PatientEmail: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.SubmitBooking(context.Background(), tt.req)
			assert.Equal(t, codes.InvalidArgument, code(err))
		})
	}
}

func TestListMyBookingsOwnership(t *testing.T) {
	h, _ := setup(t)
	_, err := h.SubmitBooking(context.Background(), &model.Booking{
		Treatment: "Cleaning", Date: "Jan 1, 2022", Slot: "9am", PatientEmail: "a@x.com",
	})
	require.NoError(t, err)

	own := access.WithIdentity(context.Background(), "a@x.com")
	resp, err := h.ListMyBookings(own, &handler.PatientRequest{Patient: "a@x.com"})
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 1)

	other := access.WithIdentity(context.Background(), "b@x.com")
	_, err = h.ListMyBookings(other, &handler.PatientRequest{Patient: "a@x.com"})
	assert.Equal(t, codes.PermissionDenied, code(err))
}

func TestUpsertAndAdmin(t *testing.T) {
	h, _ := setup(t)
	ctx := context.Background()

	login, err := h.UpsertUser(ctx, &handler.UpsertUserRequest{
		Email:   "a@x.com",
		Profile: model.Profile{"name": "A"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Credential)
	assert.EqualValues(t, 1, login.Result.Upserted)

	adm, err := h.IsAdmin(ctx, &handler.EmailRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.False(t, adm.Admin)

	_, err = h.PromoteToAdmin(ctx, &handler.EmailRequest{Email: "a@x.com"})
	require.NoError(t, err)

	adm, err = h.IsAdmin(ctx, &handler.EmailRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.True(t, adm.Admin)

	adm, err = h.IsAdmin(ctx, &handler.EmailRequest{Email: "ghost@x.com"})
	require.NoError(t, err)
	assert.False(t, adm.Admin)

	_, err = h.PromoteToAdmin(ctx, &handler.EmailRequest{Email: "ghost@x.com"})
	assert.Equal(t, codes.NotFound, code(err))
}

func TestUpsertUserRejectsUnknownRole(t *testing.T) {
	h, _ := setup(t)
	_, err := h.UpsertUser(context.Background(), &handler.UpsertUserRequest{
		Email:   "a@x.com",
		Profile: model.Profile{"role": "superuser"},
	})
	assert.Equal(t, codes.InvalidArgument, code(err))
}

func TestDoctors(t *testing.T) {
	h, _ := setup(t)
	ctx := context.Background()

	doc := &model.Doctor{Name: "Dr. Who", Email: "who@x.com", Specialty: "Orthodontics"}
	_, err := h.AddDoctor(ctx, doc)
	require.NoError(t, err)

	_, err = h.AddDoctor(ctx, &model.Doctor{Name: "Dup", Email: "who@x.com"})
	assert.Equal(t, codes.AlreadyExists, code(err))

	list, err := h.ListDoctors(ctx, &handler.Empty{})
	require.NoError(t, err)
	assert.Len(t, list.Doctors, 1)

	res, err := h.RemoveDoctor(ctx, &handler.EmailRequest{Email: "who@x.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Deleted)
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	h, st := setup(t)
	st.FailWith = errors.New("connection refused")

	_, err := h.ListServices(context.Background(), &handler.Empty{})
	assert.Equal(t, codes.Unavailable, code(err))
	assert.NotContains(t, status.Convert(err).Message(), "connection refused")
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{nil, codes.OK},
		{apperr.ErrUnauthenticated, codes.Unauthenticated},
		{auth.ErrBadToken, codes.Unauthenticated},
		{apperr.ErrForbidden, codes.PermissionDenied},
		{apperr.ErrNotFound, codes.NotFound},
		{apperr.ErrConflict, codes.AlreadyExists},
		{apperr.Invalid("x"), codes.InvalidArgument},
		{apperr.Unavailable(errors.New("down")), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.ResourceExhausted, "slow down"), codes.ResourceExhausted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, handler.Code(tt.err), "%v", tt.err)
	}
}
