package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"doctors-portal-api/internal/metrics"
)

// Logging records one log line and one duration sample per gRPC call.
func Logging(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		elapsed := time.Since(start)
		code := status.Code(err)

		metrics.RequestDuration.WithLabelValues("grpc", info.FullMethod, code.String()).Observe(elapsed.Seconds())
		log.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("elapsed", elapsed),
		)
		return resp, err
	}
}

// HTTPLogging is the chi counterpart of Logging. The route label is the
// matched pattern, not the raw path.
func HTTPLogging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			metrics.RequestDuration.WithLabelValues("http", r.Method+" "+route, strconv.Itoa(code)).Observe(elapsed.Seconds())
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", code),
				zap.Duration("elapsed", elapsed),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
