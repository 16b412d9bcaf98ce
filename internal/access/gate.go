// Package access decides who may call what. Each protected operation runs an
// ordered list of guards; the first failing guard stops the chain before any
// data access happens.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/model"
)

// Level is the protection an operation requires.
type Level int

const (
	Open Level = iota
	Patient
	Admin
)

func (l Level) String() string {
	switch l {
	case Patient:
		return "patient"
	case Admin:
		return "admin"
	default:
		return "open"
	}
}

// Verifier turns a raw bearer token into an identity.
type Verifier interface {
	Verify(raw string) (string, error)
}

// Directory resolves the user record that carries the role tag.
type Directory interface {
	UserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Caller accumulates what guards learn about the request.
type Caller struct {
	Authorization string
	Email         string
}

// Guard is one step of an authorization chain.
type Guard func(ctx context.Context, c *Caller) error

type Gate struct {
	verifier Verifier
	dir      Directory
}

func NewGate(v Verifier, d Directory) *Gate {
	return &Gate{verifier: v, dir: d}
}

// Authenticated requires a verifiable bearer credential.
func (g *Gate) Authenticated() Guard {
	return func(_ context.Context, c *Caller) error {
		email, err := g.RequireAuthenticated(c.Authorization)
		if err != nil {
			return err
		}
		c.Email = email
		return nil
	}
}

// IsAdmin requires the already-authenticated caller to hold the admin role.
func (g *Gate) IsAdmin() Guard {
	return func(ctx context.Context, c *Caller) error {
		if c.Email == "" {
			return apperr.ErrUnauthenticated
		}
		return g.RequireAdmin(ctx, c.Email)
	}
}

// Guards returns the chain for a level. Admin is always authenticate-then-role.
func (g *Gate) Guards(l Level) []Guard {
	switch l {
	case Patient:
		return []Guard{g.Authenticated()}
	case Admin:
		return []Guard{g.Authenticated(), g.IsAdmin()}
	default:
		return nil
	}
}

// Check runs the chain for l against the Authorization header value and
// returns the caller identity (empty for Open).
func (g *Gate) Check(ctx context.Context, l Level, authorization string) (string, error) {
	c := &Caller{Authorization: authorization}
	if err := Run(ctx, c, g.Guards(l)...); err != nil {
		return "", err
	}
	return c.Email, nil
}

// Run executes guards in order and stops at the first failure.
func Run(ctx context.Context, c *Caller, guards ...Guard) error {
	for _, guard := range guards {
		if err := guard(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// RequireAuthenticated expects "Bearer <token>". An absent header is
// ErrUnauthenticated; anything present but unverifiable is ErrInvalidCredential.
func (g *Gate) RequireAuthenticated(authorization string) (string, error) {
	raw := BearerToken(authorization)
	if raw == "" {
		return "", apperr.ErrUnauthenticated
	}
	email, err := g.verifier.Verify(raw)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredential) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidCredential, err)
	}
	return email, nil
}

// RequireAdmin fails with ErrForbidden unless email owns the admin role.
// An unknown user is forbidden too, not a not-found.
func (g *Gate) RequireAdmin(ctx context.Context, email string) error {
	u, err := g.dir.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrForbidden
		}
		return err
	}
	if !u.IsAdmin() {
		return apperr.ErrForbidden
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	// present but not a bearer credential
	return header
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKey{}, email)
}

// Identity returns the email a guard chain established, or "".
func Identity(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}
