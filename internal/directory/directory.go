// Package directory manages user, role and doctor records.
package directory

import (
	"context"
	"errors"
	"fmt"

	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/model"
)

type Repository interface {
	UpsertUser(ctx context.Context, email string, profile model.Profile, role *model.Role) (model.WriteResult, error)
	SetRole(ctx context.Context, email string, role model.Role) (model.WriteResult, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListDoctors(ctx context.Context) ([]model.Doctor, error)
	AddDoctor(ctx context.Context, d *model.Doctor) (model.WriteResult, error)
	RemoveDoctor(ctx context.Context, email string) (model.WriteResult, error)
}

type Issuer interface {
	Issue(email string) (string, error)
}

type Directory struct {
	repo   Repository
	issuer Issuer
}

func New(repo Repository, issuer Issuer) *Directory {
	return &Directory{repo: repo, issuer: issuer}
}

// Login is the result of an upsert: the store outcome and a fresh credential.
type Login struct {
	Result     model.WriteResult `json:"result"`
	Credential string            `json:"token"`
}

// UpsertUser creates or refreshes the profile keyed by email and issues a
// credential for it. The role is only touched when profile carries a "role" key.
func (d *Directory) UpsertUser(ctx context.Context, email string, profile model.Profile) (Login, error) {
	if email == "" {
		return Login{}, apperr.Invalid("email required")
	}
	fields, role, err := splitRole(profile)
	if err != nil {
		return Login{}, err
	}
	res, err := d.repo.UpsertUser(ctx, email, fields, role)
	if err != nil {
		return Login{}, err
	}
	tok, err := d.issuer.Issue(email)
	if err != nil {
		return Login{}, fmt.Errorf("issue credential: %w", err)
	}
	return Login{Result: res, Credential: tok}, nil
}

func splitRole(profile model.Profile) (model.Profile, *model.Role, error) {
	fields := make(model.Profile, len(profile))
	var role *model.Role
	for k, v := range profile {
		switch k {
		case "email":
			// the key is authoritative
		case "role":
			s, _ := v.(string)
			r := model.Role(s)
			switch r {
			case "":
			case model.RoleAdmin:
				// granted only through PromoteToAdmin
				return nil, nil, fmt.Errorf("%w: role %q cannot be self-assigned", apperr.ErrForbidden, s)
			default:
				return nil, nil, apperr.Invalid(fmt.Sprintf("unknown role %q", s))
			}
			role = &r
		default:
			fields[k] = v
		}
	}
	return fields, role, nil
}

func (d *Directory) PromoteToAdmin(ctx context.Context, email string) (model.WriteResult, error) {
	if email == "" {
		return model.WriteResult{}, apperr.Invalid("email required")
	}
	return d.repo.SetRole(ctx, email, model.RoleAdmin)
}

// IsAdmin reports whether email holds the admin role. Unknown emails are
// simply not admins.
func (d *Directory) IsAdmin(ctx context.Context, email string) (bool, error) {
	u, err := d.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsAdmin(), nil
}

func (d *Directory) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return d.repo.UserByEmail(ctx, email)
}

func (d *Directory) Users(ctx context.Context) ([]model.User, error) {
	return d.repo.ListUsers(ctx)
}

func (d *Directory) Doctors(ctx context.Context) ([]model.Doctor, error) {
	return d.repo.ListDoctors(ctx)
}

func (d *Directory) AddDoctor(ctx context.Context, doc *model.Doctor) (model.WriteResult, error) {
	return d.repo.AddDoctor(ctx, doc)
}

func (d *Directory) RemoveDoctor(ctx context.Context, email string) (model.WriteResult, error) {
	if email == "" {
		return model.WriteResult{}, apperr.Invalid("email required")
	}
	return d.repo.RemoveDoctor(ctx, email)
}
