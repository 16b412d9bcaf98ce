package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/directory"
	"doctors-portal-api/internal/model"
)

// Handler implements every PortalService operation. Both the gRPC server and
// the HTTP gateway call into it.
type Handler struct {
	booking  *booking.Service
	dir      *directory.Directory
	validate *validator.Validate
	log      *zap.Logger
}

func New(bs *booking.Service, dir *directory.Directory, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		booking:  bs,
		dir:      dir,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

type Empty struct{}

type DateRequest struct {
	Date string `json:"date" validate:"required"`
}

type PatientRequest struct {
	Patient string `json:"patient" validate:"required,email"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type NameRequest struct {
	Name string `json:"name" validate:"required"`
}

type UpsertUserRequest struct {
	Email   string        `json:"email" validate:"required,email"`
	Profile model.Profile `json:"profile"`
}

type ServicesResponse struct {
	Services []model.Service `json:"services"`
}

type ServiceNamesResponse struct {
	Names []model.ServiceName `json:"names"`
}

type BookingsResponse struct {
	Bookings []model.Booking `json:"bookings"`
}

type UsersResponse struct {
	Users []model.User `json:"users"`
}

type DoctorsResponse struct {
	Doctors []model.Doctor `json:"doctors"`
}

type AdminResponse struct {
	Admin bool `json:"admin"`
}

func (h *Handler) check(req any) error {
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return status.Errorf(codes.InvalidArgument, "%s: failed %s", f.Field(), f.Tag())
		}
		return status.Error(codes.InvalidArgument, "invalid request")
	}
	return nil
}

// Code maps an error from the domain packages to a gRPC code.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated), errors.Is(err, apperr.ErrInvalidCredential):
		return codes.Unauthenticated
	case errors.Is(err, apperr.ErrForbidden):
		return codes.PermissionDenied
	case errors.Is(err, apperr.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, apperr.ErrConflict):
		return codes.AlreadyExists
	case errors.Is(err, apperr.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, apperr.ErrUnavailable):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// fail converts err to a status error. Internal and storage details stay in
// the log.
func (h *Handler) fail(op string, err error) error {
	c := Code(err)
	switch c {
	case codes.Internal:
		h.log.Error(op, zap.Error(err))
		return status.Error(c, "internal error")
	case codes.Unavailable:
		h.log.Warn(op, zap.Error(err))
		return status.Error(c, "service unavailable")
	case codes.Unauthenticated:
		if errors.Is(err, apperr.ErrUnauthenticated) {
			return status.Error(c, "no token")
		}
		return status.Error(c, "bad token")
	case codes.PermissionDenied:
		return status.Error(c, "forbidden access")
	case codes.NotFound:
		return status.Error(c, "not found")
	case codes.AlreadyExists:
		return status.Error(c, "already exists")
	default:
		if _, ok := status.FromError(err); ok {
			return err
		}
		return status.Error(c, err.Error())
	}
}
