package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"doctors-portal-api/internal/apperr"
)

// DefaultTTL is the fixed validity of an issued credential.
const DefaultTTL = time.Hour

var ErrBadToken = fmt.Errorf("%w: bad token", apperr.ErrInvalidCredential)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 credentials bound to an email identity.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Issuer)

func WithTTL(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.ttl = d
		}
	}
}

// WithClock overrides the time source; tests use it to mint expired tokens.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	i := &Issuer{secret: []byte(secret), ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

func (i *Issuer) Issue(email string) (string, error) {
	now := i.now()
	c := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Verify returns the identity bound to raw. Every failure (bad signature,
// malformed, expired) is reported as ErrBadToken.
func (i *Issuer) Verify(raw string) (string, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.Email == "" {
		return "", ErrBadToken
	}
	return c.Email, nil
}
