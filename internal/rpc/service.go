// Package rpc describes doctors.v1.PortalService for grpc-go.
package rpc

import (
	"context"

	"google.golang.org/grpc"

	"doctors-portal-api/internal/access"
	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/directory"
	"doctors-portal-api/internal/handler"
	"doctors-portal-api/internal/model"
)

const ServiceName = "doctors.v1.PortalService"

// Method names.
const (
	ListServices     = "ListServices"
	ListServiceNames = "ListServiceNames"
	AvailableSlots   = "AvailableSlots"
	ListMyBookings   = "ListMyBookings"
	SubmitBooking    = "SubmitBooking"
	UpsertUser       = "UpsertUser"
	PromoteToAdmin   = "PromoteToAdmin"
	ListUsers        = "ListUsers"
	IsAdmin          = "IsAdmin"
	ListDoctors      = "ListDoctors"
	AddDoctor        = "AddDoctor"
	RemoveDoctor     = "RemoveDoctor"
	AddService       = "AddService"
	RemoveService    = "RemoveService"
)

func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type PortalServer interface {
	ListServices(context.Context, *handler.Empty) (*handler.ServicesResponse, error)
	ListServiceNames(context.Context, *handler.Empty) (*handler.ServiceNamesResponse, error)
	AvailableSlots(context.Context, *handler.DateRequest) (*handler.ServicesResponse, error)
	ListMyBookings(context.Context, *handler.PatientRequest) (*handler.BookingsResponse, error)
	SubmitBooking(context.Context, *model.Booking) (*booking.Admission, error)
	UpsertUser(context.Context, *handler.UpsertUserRequest) (*directory.Login, error)
	PromoteToAdmin(context.Context, *handler.EmailRequest) (*model.WriteResult, error)
	ListUsers(context.Context, *handler.Empty) (*handler.UsersResponse, error)
	IsAdmin(context.Context, *handler.EmailRequest) (*handler.AdminResponse, error)
	ListDoctors(context.Context, *handler.Empty) (*handler.DoctorsResponse, error)
	AddDoctor(context.Context, *model.Doctor) (*model.WriteResult, error)
	RemoveDoctor(context.Context, *handler.EmailRequest) (*model.WriteResult, error)
	AddService(context.Context, *model.Service) (*model.WriteResult, error)
	RemoveService(context.Context, *handler.NameRequest) (*model.WriteResult, error)
}

var _ PortalServer = (*handler.Handler)(nil)

// policy is the access level per method. Methods missing here are admin-only.
var policy = map[string]access.Level{
	ListServices:     access.Open,
	ListServiceNames: access.Open,
	AvailableSlots:   access.Open,
	SubmitBooking:    access.Open,
	UpsertUser:       access.Open,
	IsAdmin:          access.Open,
	ListMyBookings:   access.Patient,
	ListUsers:        access.Patient,
	PromoteToAdmin:   access.Admin,
	ListDoctors:      access.Admin,
	AddDoctor:        access.Admin,
	RemoveDoctor:     access.Admin,
	AddService:       access.Admin,
	RemoveService:    access.Admin,
}

// Level returns the access level for a method name or full method path.
func Level(method string) access.Level {
	if l, ok := policy[method]; ok {
		return l
	}
	prefix := "/" + ServiceName + "/"
	if len(method) > len(prefix) && method[:len(prefix)] == prefix {
		if l, ok := policy[method[len(prefix):]]; ok {
			return l
		}
	}
	return access.Admin
}

func unary[Req, Resp any](name string, call func(PortalServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PortalServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(PortalServer), ctx, req.(*Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortalServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ListServices, PortalServer.ListServices),
		unary(ListServiceNames, PortalServer.ListServiceNames),
		unary(AvailableSlots, PortalServer.AvailableSlots),
		unary(ListMyBookings, PortalServer.ListMyBookings),
		unary(SubmitBooking, PortalServer.SubmitBooking),
		unary(UpsertUser, PortalServer.UpsertUser),
		unary(PromoteToAdmin, PortalServer.PromoteToAdmin),
		unary(ListUsers, PortalServer.ListUsers),
		unary(IsAdmin, PortalServer.IsAdmin),
		unary(ListDoctors, PortalServer.ListDoctors),
		unary(AddDoctor, PortalServer.AddDoctor),
		unary(RemoveDoctor, PortalServer.RemoveDoctor),
		unary(AddService, PortalServer.AddService),
		unary(RemoveService, PortalServer.RemoveService),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "doctors/v1/portal",
}

func RegisterPortalServer(s grpc.ServiceRegistrar, srv PortalServer) {
	s.RegisterService(&ServiceDesc, srv)
}
