package middleware

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"doctors-portal-api/internal/access"
	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/handler"
)

// Auth runs the gate chain that levelOf assigns to each method and puts the
// verified caller email on the context.
func Auth(gate *access.Gate, levelOf func(fullMethod string) access.Level) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		lvl := levelOf(info.FullMethod)
		if lvl == access.Open {
			return next(ctx, req)
		}

		// token from Authorization: Bearer <jwt>
		raw := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				raw = vals[0]
			}
		}

		email, err := gate.Check(ctx, lvl, raw)
		if err != nil {
			return nil, denied(err)
		}
		return next(access.WithIdentity(ctx, email), req)
	}
}

func denied(err error) error {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "no token")
	case errors.Is(err, apperr.ErrInvalidCredential):
		return status.Error(codes.Unauthenticated, "bad token")
	case errors.Is(err, apperr.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden access")
	}
	c := handler.Code(err)
	if c == codes.Unavailable {
		return status.Error(c, "service unavailable")
	}
	return status.Error(codes.Internal, "internal error")
}
