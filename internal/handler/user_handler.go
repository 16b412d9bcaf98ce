package handler

import (
	"context"

	"doctors-portal-api/internal/directory"
	"doctors-portal-api/internal/model"
)

func (h *Handler) UpsertUser(ctx context.Context, req *UpsertUserRequest) (*directory.Login, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	login, err := h.dir.UpsertUser(ctx, req.Email, req.Profile)
	if err != nil {
		return nil, h.fail("upsert user", err)
	}
	return &login, nil
}

func (h *Handler) PromoteToAdmin(ctx context.Context, req *EmailRequest) (*model.WriteResult, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	res, err := h.dir.PromoteToAdmin(ctx, req.Email)
	if err != nil {
		return nil, h.fail("promote", err)
	}
	return &res, nil
}

func (h *Handler) ListUsers(ctx context.Context, _ *Empty) (*UsersResponse, error) {
	users, err := h.dir.Users(ctx)
	if err != nil {
		return nil, h.fail("list users", err)
	}
	return &UsersResponse{Users: users}, nil
}

func (h *Handler) IsAdmin(ctx context.Context, req *EmailRequest) (*AdminResponse, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	ok, err := h.dir.IsAdmin(ctx, req.Email)
	if err != nil {
		return nil, h.fail("is admin", err)
	}
	return &AdminResponse{Admin: ok}, nil
}

func (h *Handler) ListDoctors(ctx context.Context, _ *Empty) (*DoctorsResponse, error) {
	docs, err := h.dir.Doctors(ctx)
	if err != nil {
		return nil, h.fail("list doctors", err)
	}
	return &DoctorsResponse{Doctors: docs}, nil
}

func (h *Handler) AddDoctor(ctx context.Context, req *model.Doctor) (*model.WriteResult, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	res, err := h.dir.AddDoctor(ctx, req)
	if err != nil {
		return nil, h.fail("add doctor", err)
	}
	return &res, nil
}

func (h *Handler) RemoveDoctor(ctx context.Context, req *EmailRequest) (*model.WriteResult, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	res, err := h.dir.RemoveDoctor(ctx, req.Email)
	if err != nil {
		return nil, h.fail("remove doctor", err)
	}
	return &res, nil
}
