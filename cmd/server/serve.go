package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"doctors-portal-api/internal/access"
	"doctors-portal-api/internal/auth"
	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/config"
	"doctors-portal-api/internal/directory"
	"doctors-portal-api/internal/gateway"
	"doctors-portal-api/internal/handler"
	"doctors-portal-api/internal/middleware"
	"doctors-portal-api/internal/notify"
	"doctors-portal-api/internal/rpc"
)

func runServer(parent context.Context, cfg *config.Config, log *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer closeStore()

	sink, closeSink, err := openSink(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("notify sink: %w", err)
	}
	defer closeSink()

	dispatcher := notify.NewDispatcher(sink, log.Named("notify"), notify.Config{
		Workers: cfg.Notify.Workers,
		Buffer:  cfg.Notify.Buffer,
		Timeout: cfg.Notify.Timeout,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}
	gate := access.NewGate(issuer, st)
	bookings := booking.NewService(st, dispatcher, booking.WithCatalogCache(cfg.CatalogTTL))
	h := handler.New(bookings, directory.New(st, issuer), log.Named("handler"))

	// grpc server
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rl.Close()
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.Logging(log.Named("grpc")),
			middleware.RateLimit(rl, rpc.FullMethod(rpc.UpsertUser)),
			middleware.Auth(gate, rpc.Level),
		),
	)
	rpc.RegisterPortalServer(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		log.Info("grpc listening", zap.String("port", cfg.GRPCPort))
		if err := srv.Serve(lis); err != nil {
			log.Error("grpc", zap.Error(err))
		}
	}()

	// http gateway, calls the handler in-process
	gw := gateway.New(h, gate, log.Named("http"), gateway.Options{
		CORSOrigins: cfg.CORSOrigins,
		LoginLimit:  int(cfg.RateLimitRPS * 60),
		Ping:        st.Ping,
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           gw.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http listening", zap.String("port", cfg.WebPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	srv.GracefulStop()
	return nil
}

// openSink builds the configured notification transport.
func openSink(ctx context.Context, cfg *config.Config, log *zap.Logger) (notify.Sink, func(), error) {
	n := cfg.Notify
	switch n.Sink {
	case config.SinkSMTP:
		return notify.NewMailSink(n.SMTPHost, n.SMTPPort, n.SMTPUsername, n.SMTPPassword, n.SMTPFrom), func() {}, nil
	case config.SinkAMQP:
		conn, err := amqp091.Dial(n.AMQPURL)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp dial: %w", err)
		}
		sink, err := notify.NewAMQPSink(conn, n.AMQPQueue)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return sink, func() {
			_ = sink.Close()
			_ = conn.Close()
		}, nil
	case config.SinkRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     n.RedisAddr,
			Password: n.RedisPassword,
			DB:       n.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return notify.NewRedisSink(client, n.RedisChannel), func() { _ = client.Close() }, nil
	default:
		return notify.LogSink{Log: log.Named("notify")}, func() {}, nil
	}
}
