package rpc

import (
	"context"

	"google.golang.org/grpc"

	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/directory"
	"doctors-portal-api/internal/handler"
	"doctors-portal-api/internal/model"
)

type PortalClient struct {
	cc grpc.ClientConnInterface
}

func NewPortalClient(cc grpc.ClientConnInterface) *PortalClient {
	return &PortalClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PortalClient) ListServices(ctx context.Context, in *handler.Empty, opts ...grpc.CallOption) (*handler.ServicesResponse, error) {
	return invoke[handler.ServicesResponse](ctx, c.cc, ListServices, in, opts)
}

func (c *PortalClient) ListServiceNames(ctx context.Context, in *handler.Empty, opts ...grpc.CallOption) (*handler.ServiceNamesResponse, error) {
	return invoke[handler.ServiceNamesResponse](ctx, c.cc, ListServiceNames, in, opts)
}

func (c *PortalClient) AvailableSlots(ctx context.Context, in *handler.DateRequest, opts ...grpc.CallOption) (*handler.ServicesResponse, error) {
	return invoke[handler.ServicesResponse](ctx, c.cc, AvailableSlots, in, opts)
}

func (c *PortalClient) ListMyBookings(ctx context.Context, in *handler.PatientRequest, opts ...grpc.CallOption) (*handler.BookingsResponse, error) {
	return invoke[handler.BookingsResponse](ctx, c.cc, ListMyBookings, in, opts)
}

func (c *PortalClient) SubmitBooking(ctx context.Context, in *model.Booking, opts ...grpc.CallOption) (*booking.Admission, error) {
	return invoke[booking.Admission](ctx, c.cc, SubmitBooking, in, opts)
}

func (c *PortalClient) UpsertUser(ctx context.Context, in *handler.UpsertUserRequest, opts ...grpc.CallOption) (*directory.Login, error) {
	return invoke[directory.Login](ctx, c.cc, UpsertUser, in, opts)
}

func (c *PortalClient) PromoteToAdmin(ctx context.Context, in *handler.EmailRequest, opts ...grpc.CallOption) (*model.WriteResult, error) {
	return invoke[model.WriteResult](ctx, c.cc, PromoteToAdmin, in, opts)
}

func (c *PortalClient) ListUsers(ctx context.Context, in *handler.Empty, opts ...grpc.CallOption) (*handler.UsersResponse, error) {
	return invoke[handler.UsersResponse](ctx, c.cc, ListUsers, in, opts)
}

func (c *PortalClient) IsAdmin(ctx context.Context, in *handler.EmailRequest, opts ...grpc.CallOption) (*handler.AdminResponse, error) {
	return invoke[handler.AdminResponse](ctx, c.cc, IsAdmin, in, opts)
}

func (c *PortalClient) ListDoctors(ctx context.Context, in *handler.Empty, opts ...grpc.CallOption) (*handler.DoctorsResponse, error) {
	return invoke[handler.DoctorsResponse](ctx, c.cc, ListDoctors, in, opts)
}

func (c *PortalClient) AddDoctor(ctx context.Context, in *model.Doctor, opts ...grpc.CallOption) (*model.WriteResult, error) {
	return invoke[model.WriteResult](ctx, c.cc, AddDoctor, in, opts)
}

func (c *PortalClient) RemoveDoctor(ctx context.Context, in *handler.EmailRequest, opts ...grpc.CallOption) (*model.WriteResult, error) {
	return invoke[model.WriteResult](ctx, c.cc, RemoveDoctor, in, opts)
}

func (c *PortalClient) AddService(ctx context.Context, in *model.Service, opts ...grpc.CallOption) (*model.WriteResult, error) {
	return invoke[model.WriteResult](ctx, c.cc, AddService, in, opts)
}

func (c *PortalClient) RemoveService(ctx context.Context, in *handler.NameRequest, opts ...grpc.CallOption) (*model.WriteResult, error) {
	return invoke[model.WriteResult](ctx, c.cc, RemoveService, in, opts)
}
