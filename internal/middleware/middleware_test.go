package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"doctors-portal-api/internal/access"
	"doctors-portal-api/internal/auth"
	"doctors-portal-api/internal/middleware"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store/memstore"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

func levels(m map[string]access.Level) func(string) access.Level {
	return func(method string) access.Level { return m[method] }
}

func withToken(tok string) context.Context {
	md := metadata.New(map[string]string{"authorization": "Bearer " + tok})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestAuthInterceptor(t *testing.T) {
	st := memstore.New()
	iss, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)
	gate := access.NewGate(iss, st)

	_, err = st.UpsertUser(context.Background(), "pat@x.com", nil, nil)
	require.NoError(t, err)
	_, err = st.UpsertUser(context.Background(), "boss@x.com", nil, nil)
	require.NoError(t, err)
	_, err = st.SetRole(context.Background(), "boss@x.com", model.RoleAdmin)
	require.NoError(t, err)

	patTok, _ := iss.Issue("pat@x.com")
	bossTok, _ := iss.Issue("boss@x.com")

	icpt := middleware.Auth(gate, levels(map[string]access.Level{
		"/open":    access.Open,
		"/patient": access.Patient,
		"/admin":   access.Admin,
	}))

	var seen string
	next := func(ctx context.Context, req any) (any, error) {
		seen = access.Identity(ctx)
		return "ok", nil
	}

	tests := []struct {
		name   string
		ctx    context.Context
		method string
		want   codes.Code
		who    string
	}{
		{"open without token", context.Background(), "/open", codes.OK, ""},
		{"patient without token", context.Background(), "/patient", codes.Unauthenticated, ""},
		{"patient with garbage", withToken("garbage"), "/patient", codes.Unauthenticated, ""},
		{"patient with token", withToken(patTok), "/patient", codes.OK, "pat@x.com"},
		{"admin as patient", withToken(patTok), "/admin", codes.PermissionDenied, ""},
		{"admin as admin", withToken(bossTok), "/admin", codes.OK, "boss@x.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			_, err := icpt(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, next)
			assert.Equal(t, tt.want, status.Code(err))
			assert.Equal(t, tt.who, seen)
		})
	}
}

func TestAuthInterceptorMessages(t *testing.T) {
	iss, _ := auth.NewIssuer("test-secret")
	gate := access.NewGate(iss, memstore.New())
	icpt := middleware.Auth(gate, func(string) access.Level { return access.Patient })
	next := func(ctx context.Context, req any) (any, error) { return nil, nil }

	_, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x"}, next)
	assert.Equal(t, "no token", status.Convert(err).Message())

	_, err = icpt(withToken("garbage"), nil, &grpc.UnaryServerInfo{FullMethod: "/x"}, next)
	assert.Equal(t, "bad token", status.Convert(err).Message())
}

func TestRateLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 2)
	defer rl.Close()
	icpt := middleware.RateLimit(rl, "/limited")
	next := func(ctx context.Context, req any) (any, error) { return nil, nil }

	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("10.0.0.1:1234")})
	limited := &grpc.UnaryServerInfo{FullMethod: "/limited"}
	free := &grpc.UnaryServerInfo{FullMethod: "/free"}

	for i := 0; i < 2; i++ {
		_, err := icpt(ctx, nil, limited, next)
		require.NoError(t, err)
	}
	_, err := icpt(ctx, nil, limited, next)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	for i := 0; i < 5; i++ {
		_, err := icpt(ctx, nil, free, next)
		assert.NoError(t, err)
	}

	other := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("10.0.0.2:1234")})
	_, err = icpt(other, nil, limited, next)
	assert.NoError(t, err)
}

func TestLoggingPassesThrough(t *testing.T) {
	icpt := middleware.Logging(zap.NewNop())
	want := status.Error(codes.NotFound, "not found")
	_, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x"},
		func(ctx context.Context, req any) (any, error) { return nil, want })
	assert.Equal(t, want, err)
}

func TestRateLimitSharedAcrossPorts(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	defer rl.Close()
	icpt := middleware.RateLimit(rl, "/limited")
	next := func(ctx context.Context, req any) (any, error) { return nil, nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/limited"}

	first := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("10.0.0.9:5000")})
	_, err := icpt(first, nil, info, next)
	require.NoError(t, err)

	reconnected := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("10.0.0.9:5001")})
	_, err = icpt(reconnected, nil, info, next)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
