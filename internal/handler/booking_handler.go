package handler

import (
	"context"

	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/model"
)

func (h *Handler) ListServices(ctx context.Context, _ *Empty) (*ServicesResponse, error) {
	svcs, err := h.booking.Services(ctx)
	if err != nil {
		return nil, h.fail("list services", err)
	}
	return &ServicesResponse{Services: svcs}, nil
}

func (h *Handler) ListServiceNames(ctx context.Context, _ *Empty) (*ServiceNamesResponse, error) {
	names, err := h.booking.ServiceNames(ctx)
	if err != nil {
		return nil, h.fail("list service names", err)
	}
	return &ServiceNamesResponse{Names: names}, nil
}

func (h *Handler) AvailableSlots(ctx context.Context, req *DateRequest) (*ServicesResponse, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	svcs, err := h.booking.AvailableSlots(ctx, req.Date)
	if err != nil {
		return nil, h.fail("available slots", err)
	}
	return &ServicesResponse{Services: svcs}, nil
}

func (h *Handler) ListMyBookings(ctx context.Context, req *PatientRequest) (*BookingsResponse, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	list, err := h.booking.BookingsFor(ctx, req.Patient)
	if err != nil {
		return nil, h.fail("list bookings", err)
	}
	return &BookingsResponse{Bookings: list}, nil
}

// SubmitBooking answers a duplicate with accepted=false and the existing
// record, not an error.
func (h *Handler) SubmitBooking(ctx context.Context, req *model.Booking) (*booking.Admission, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	adm, err := h.booking.Submit(ctx, *req)
	if err != nil {
		return nil, h.fail("submit booking", err)
	}
	return &adm, nil
}

func (h *Handler) AddService(ctx context.Context, req *model.Service) (*model.WriteResult, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	res, err := h.booking.AddService(ctx, req)
	if err != nil {
		return nil, h.fail("add service", err)
	}
	return &res, nil
}

func (h *Handler) RemoveService(ctx context.Context, req *NameRequest) (*model.WriteResult, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	res, err := h.booking.RemoveService(ctx, req.Name)
	if err != nil {
		return nil, h.fail("remove service", err)
	}
	return &res, nil
}
