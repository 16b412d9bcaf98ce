package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

func setup(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	st, err := store.Connect(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Migrate(ctx, "../../db/migrations/001_init.sql"))
	return st
}

func uniq(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

func TestBookingUniqueness(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	b := model.Booking{
		Treatment:    uniq("Cleaning"),
		Date:         "Jan 1, 2022",
		PatientEmail: uniq("p") + "@test.com",
		Slot:         "10am",
		Patient:      "P",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.InsertBooking(ctx, &b))
	assert.NotEmpty(t, b.ID)

	dup := b
	dup.Slot = "9am"
	err := st.InsertBooking(ctx, &dup)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := st.FindBooking(ctx, b.Key())
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "10am", got.Slot)

	_, err = st.FindBooking(ctx, model.BookingKey{Treatment: uniq("none")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	on, err := st.BookingsOn(ctx, "Jan 1, 2022")
	require.NoError(t, err)
	found := false
	for _, x := range on {
		found = found || x.ID == b.ID
	}
	assert.True(t, found)
}

func TestConcurrentInsertOneWins(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	base := model.Booking{
		Treatment:    uniq("Race"),
		Date:         "Jan 3, 2022",
		PatientEmail: uniq("r") + "@test.com",
		Slot:         "11am",
		CreatedAt:    time.Now().UTC(),
	}

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := base
			err := st.InsertBooking(ctx, &b)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrConflict):
				conflicts++
			default:
				t.Errorf("insert: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestUserUpsertAndRole(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	email := uniq("u") + "@test.com"

	res, err := st.UpsertUser(ctx, email, model.Profile{"name": "U"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Upserted)

	res, err = st.UpsertUser(ctx, email, model.Profile{"name": "U"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Matched)
	assert.Zero(t, res.Modified)

	res, err = st.SetRole(ctx, email, model.RoleAdmin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Modified)

	res, err = st.UpsertUser(ctx, email, model.Profile{"name": "U2"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Modified)

	u, err := st.UserByEmail(ctx, email)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "U2", u.Profile["name"])

	_, err = st.SetRole(ctx, uniq("ghost")+"@test.com", model.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestServicesAndDoctors(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	name := uniq("Svc")
	_, err := st.AddService(ctx, &model.Service{Name: name, Slots: []string{"8am", "9am"}})
	require.NoError(t, err)
	_, err = st.AddService(ctx, &model.Service{Name: name})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	list, err := st.ListServices(ctx)
	require.NoError(t, err)
	var slots []string
	for _, s := range list {
		if s.Name == name {
			slots = s.Slots
		}
	}
	assert.Equal(t, []string{"8am", "9am"}, slots)

	res, err := st.RemoveService(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Deleted)

	email := uniq("doc") + "@test.com"
	_, err = st.AddDoctor(ctx, &model.Doctor{Name: "Doc", Email: email})
	require.NoError(t, err)
	res, err = st.RemoveDoctor(ctx, email)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Deleted)
}
