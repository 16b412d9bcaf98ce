// Package apperr holds the error taxonomy shared by stores, services and transports.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated   = errors.New("no credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnavailable       = errors.New("store unavailable")
	ErrInvalidInput      = errors.New("invalid input")
)

type unavailable struct{ err error }

func (u *unavailable) Error() string { return fmt.Sprintf("%s: %v", ErrUnavailable, u.err) }

func (u *unavailable) Unwrap() []error { return []error{ErrUnavailable, u.err} }

// Unavailable marks err as an I/O failure of the persistent store.
// nil stays nil.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return &unavailable{err: err}
}

// Invalid wraps a validation message.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
