package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctors-portal-api/internal/access"
	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/auth"
	"doctors-portal-api/internal/model"
)

type dirStub struct {
	users map[string]*model.User
	calls int
	err   error
}

func (d *dirStub) UserByEmail(_ context.Context, email string) (*model.User, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	u, ok := d.users[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

func setup(t *testing.T) (*access.Gate, *auth.Issuer, *dirStub) {
	t.Helper()
	iss, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)
	dir := &dirStub{users: map[string]*model.User{
		"admin@x.com":   {Email: "admin@x.com", Role: model.RoleAdmin},
		"patient@x.com": {Email: "patient@x.com"},
	}}
	return access.NewGate(iss, dir), iss, dir
}

func bearer(t *testing.T, iss *auth.Issuer, email string) string {
	t.Helper()
	tok, err := iss.Issue(email)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAdminChain(t *testing.T) {
	g, iss, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"no credential", "", apperr.ErrUnauthenticated},
		{"garbage credential", "Bearer nope", apperr.ErrInvalidCredential},
		{"non-bearer scheme", "Basic Zm9vOmJhcg==", apperr.ErrInvalidCredential},
		{"patient", bearer(t, iss, "patient@x.com"), apperr.ErrForbidden},
		{"unknown user", bearer(t, iss, "ghost@x.com"), apperr.ErrForbidden},
		{"admin", bearer(t, iss, "admin@x.com"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := g.Check(ctx, access.Admin, tt.header)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, "admin@x.com", email)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestUnauthenticatedNeverReachesDirectory(t *testing.T) {
	g, _, dir := setup(t)

	_, err := g.Check(context.Background(), access.Admin, "")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = g.Check(context.Background(), access.Admin, "Bearer junk")
	require.ErrorIs(t, err, apperr.ErrInvalidCredential)
	assert.Zero(t, dir.calls)
}

func TestPatientChain(t *testing.T) {
	g, iss, dir := setup(t)

	email, err := g.Check(context.Background(), access.Patient, bearer(t, iss, "patient@x.com"))
	require.NoError(t, err)
	assert.Equal(t, "patient@x.com", email)
	// patient level never consults roles
	assert.Zero(t, dir.calls)
}

func TestOpenChain(t *testing.T) {
	g, _, _ := setup(t)
	email, err := g.Check(context.Background(), access.Open, "")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestDirectoryFailurePropagates(t *testing.T) {
	g, iss, dir := setup(t)
	dir.err = apperr.Unavailable(errors.New("connection reset"))

	_, err := g.Check(context.Background(), access.Admin, bearer(t, iss, "admin@x.com"))
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestRunShortCircuits(t *testing.T) {
	var ran []string
	step := func(name string, err error) access.Guard {
		return func(context.Context, *access.Caller) error {
			ran = append(ran, name)
			return err
		}
	}
	err := access.Run(context.Background(), &access.Caller{},
		step("a", nil), step("b", apperr.ErrForbidden), step("c", nil))
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", access.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", access.BearerToken("bearer  abc "))
	assert.Equal(t, "", access.BearerToken("   "))
}

func TestIdentityContext(t *testing.T) {
	ctx := access.WithIdentity(context.Background(), "a@x.com")
	assert.Equal(t, "a@x.com", access.Identity(ctx))
	assert.Empty(t, access.Identity(context.Background()))
}
