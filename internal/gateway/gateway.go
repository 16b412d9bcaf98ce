// Package gateway serves PortalService over HTTP/JSON for browser clients.
package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"doctors-portal-api/internal/access"
	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/handler"
	"doctors-portal-api/internal/metrics"
	"doctors-portal-api/internal/middleware"
	"doctors-portal-api/internal/model"
)

const maxBody = 1 << 20

type Options struct {
	CORSOrigins []string
	// LoginLimit caps PUT /users/{email} per client IP per minute. 0 disables it.
	LoginLimit int
	// Ping reports store health for /healthz.
	Ping func(context.Context) error
}

type Gateway struct {
	h    *handler.Handler
	gate *access.Gate
	log  *zap.Logger
	opts Options
}

func New(h *handler.Handler, gate *access.Gate, log *zap.Logger, opts Options) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Gateway{h: h, gate: gate, log: log, opts: opts}
}

func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: g.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         86400,
	}))
	r.Use(middleware.HTTPLogging(g.log))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Doctors portal is running"))
	})
	r.Get("/healthz", g.health)
	r.Handle("/metrics", metrics.Handler())

	// open
	r.Get("/services", g.listServices)
	r.Get("/services/names", g.listServiceNames)
	r.Get("/available", g.available)
	r.Post("/bookings", g.submitBooking)
	r.Get("/admin/{email}", g.isAdmin)
	if g.opts.LoginLimit > 0 {
		r.With(httprate.LimitByIP(g.opts.LoginLimit, time.Minute)).Put("/users/{email}", g.upsertUser)
	} else {
		r.Put("/users/{email}", g.upsertUser)
	}

	r.Group(func(r chi.Router) {
		r.Use(g.guard(access.Patient))
		r.Get("/bookings", g.listBookings)
		r.Get("/users", g.listUsers)
	})

	r.Group(func(r chi.Router) {
		r.Use(g.guard(access.Admin))
		r.Put("/users/admin/{email}", g.promote)
		r.Post("/services", g.addService)
		r.Delete("/services/{name}", g.removeService)
		r.Get("/doctors", g.listDoctors)
		r.Post("/doctors", g.addDoctor)
		r.Delete("/doctors/{email}", g.removeDoctor)
	})

	return r
}

// guard runs the gate chain for lvl before the route handler.
func (g *Gateway) guard(lvl access.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := g.gate.Check(r.Context(), lvl, r.Header.Get("Authorization"))
			if err != nil {
				g.denied(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), email)))
		})
	}
}

func (g *Gateway) health(w http.ResponseWriter, r *http.Request) {
	if g.opts.Ping != nil {
		if err := g.opts.Ping(r.Context()); err != nil {
			g.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) listServices(w http.ResponseWriter, r *http.Request) {
	resp, err := g.h.ListServices(r.Context(), &handler.Empty{})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Services)
}

func (g *Gateway) listServiceNames(w http.ResponseWriter, r *http.Request) {
	resp, err := g.h.ListServiceNames(r.Context(), &handler.Empty{})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Names)
}

func (g *Gateway) available(w http.ResponseWriter, r *http.Request) {
	resp, err := g.h.AvailableSlots(r.Context(), &handler.DateRequest{Date: r.URL.Query().Get("date")})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Services)
}

func (g *Gateway) listBookings(w http.ResponseWriter, r *http.Request) {
	resp, err := g.h.ListMyBookings(r.Context(), &handler.PatientRequest{Patient: r.URL.Query().Get("patient")})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Bookings)
}

func (g *Gateway) submitBooking(w http.ResponseWriter, r *http.Request) {
	var b model.Booking
	if !g.decode(w, r, &b) {
		return
	}
	adm, err := g.h.SubmitBooking(r.Context(), &b)
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adm)
}

func (g *Gateway) upsertUser(w http.ResponseWriter, r *http.Request) {
	profile := model.Profile{}
	if !g.decodeOptional(w, r, &profile) {
		return
	}
	login, err := g.h.UpsertUser(r.Context(), &handler.UpsertUserRequest{
		Email:   pathParam(r, "email"),
		Profile: profile,
	})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, login)
}

func (g *Gateway) promote(w http.ResponseWriter, r *http.Request) {
	res, err := g.h.PromoteToAdmin(r.Context(), &handler.EmailRequest{Email: pathParam(r, "email")})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) listUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := g.h.ListUsers(r.Context(), &handler.Empty{})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Users)
}

func (g *Gateway) isAdmin(w http.ResponseWriter, r *http.Request) {
	resp, err := g.h.IsAdmin(r.Context(), &handler.EmailRequest{Email: pathParam(r, "email")})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (g *Gateway) listDoctors(w http.ResponseWriter, r *http.Request) {
	resp, err := g.h.ListDoctors(r.Context(), &handler.Empty{})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Doctors)
}

func (g *Gateway) addDoctor(w http.ResponseWriter, r *http.Request) {
	var d model.Doctor
	if !g.decode(w, r, &d) {
		return
	}
	res, err := g.h.AddDoctor(r.Context(), &d)
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) removeDoctor(w http.ResponseWriter, r *http.Request) {
	res, err := g.h.RemoveDoctor(r.Context(), &handler.EmailRequest{Email: pathParam(r, "email")})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) addService(w http.ResponseWriter, r *http.Request) {
	var s model.Service
	if !g.decode(w, r, &s) {
		return
	}
	res, err := g.h.AddService(r.Context(), &s)
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) removeService(w http.ResponseWriter, r *http.Request) {
	res, err := g.h.RemoveService(r.Context(), &handler.NameRequest{Name: pathParam(r, "name")})
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ----- helpers -----

func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (g *Gateway) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// decodeOptional is decode for requests whose body may be empty.
func (g *Gateway) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// denied answers a failed gate chain. A missing token is 401, anything the
// gate rejected after that is 403.
func (g *Gateway) denied(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "unauthorized access")
	case errors.Is(err, apperr.ErrInvalidCredential), errors.Is(err, apperr.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "forbidden access")
	default:
		g.fail(w, err)
	}
}

func (g *Gateway) fail(w http.ResponseWriter, err error) {
	c := handler.Code(err)
	msg := status.Convert(err).Message()
	if _, ok := status.FromError(err); !ok {
		g.log.Error("gateway", zap.Error(err))
		msg = "internal error"
		if c == codes.Unavailable {
			msg = "service unavailable"
		}
	}
	writeMessage(w, HTTPStatus(c), msg)
}

// HTTPStatus maps a gRPC code to the closest HTTP status.
func HTTPStatus(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
