package mongostore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store/mongostore"
)

func setup(t *testing.T) *mongostore.Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	st, err := mongostore.Connect(ctx, uri, fmt.Sprintf("portal_test_%s", uuid.New().String()[:8]))
	require.NoError(t, err)
	require.NoError(t, st.EnsureIndexes(ctx))
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestBookingUniqueIndex(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	b := model.Booking{Treatment: "Cleaning", Date: "Jan 1, 2022", PatientEmail: "a@x.com", Slot: "10am"}
	require.NoError(t, st.InsertBooking(ctx, &b))

	dup := b
	dup.Slot = "9am"
	assert.ErrorIs(t, st.InsertBooking(ctx, &dup), apperr.ErrConflict)

	got, err := st.FindBooking(ctx, b.Key())
	require.NoError(t, err)
	assert.Equal(t, "10am", got.Slot)

	_, err = st.FindBooking(ctx, model.BookingKey{Treatment: "none"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserLifecycle(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	res, err := st.UpsertUser(ctx, "a@x.com", model.Profile{"name": "A"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Upserted)

	u, err := st.UserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, u.IsAdmin())

	_, err = st.SetRole(ctx, "a@x.com", model.RoleAdmin)
	require.NoError(t, err)
	_, err = st.UpsertUser(ctx, "a@x.com", model.Profile{"name": "A2"}, nil)
	require.NoError(t, err)

	u, err = st.UserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = st.SetRole(ctx, "ghost@x.com", model.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepeatBookingReturnsSameRecord(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	svc := booking.NewService(st, nil)

	b := model.Booking{Treatment: "Cleaning", Date: "Jan 2, 2022", PatientEmail: "a@x.com", Slot: "10am", Patient: "A"}
	first, err := svc.Submit(ctx, b)
	require.NoError(t, err)
	require.True(t, first.Accepted)

	second, err := svc.Submit(ctx, b)
	require.NoError(t, err)
	assert.False(t, second.Accepted)
	assert.True(t, first.Record.CreatedAt.Equal(second.Record.CreatedAt))
	first.Record.CreatedAt, second.Record.CreatedAt = time.Time{}, time.Time{}
	assert.Equal(t, first.Record, second.Record)
}
