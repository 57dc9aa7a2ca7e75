package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/config"
	"github.com/Satyamdhote/appointment-scheduling-backend/libs/grpcx"
	"github.com/Satyamdhote/appointment-scheduling-backend/libs/httpx"
	"github.com/Satyamdhote/appointment-scheduling-backend/libs/kafkax"
	otelx "github.com/Satyamdhote/appointment-scheduling-backend/libs/otel"
	"github.com/Satyamdhote/appointment-scheduling-backend/libs/redisx"
	"github.com/Satyamdhote/appointment-scheduling-backend/libs/runtime"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/booking"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/handlers"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/outbox"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/settings"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/timezone"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	cfg, err := settings.Load()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	opened, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("event store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer opened.close()
	checks := opened.ready

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisx.Open(ctx, redisx.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Error("redis connection failed", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: redisx.ReadyCheck(rdb)})
	}
	if cfg.KafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}

	table := timezone.DefaultTable()
	conv := timezone.NewConverter(table, cfg.DSTPolicy)
	if _, err := table.Resolve(cfg.DefaultTimezone); err != nil {
		logger.Error("default timezone is not supported", "timezone", cfg.DefaultTimezone, "err", err)
		os.Exit(1)
	}

	opts := []booking.Option{}
	if rdb != nil {
		opts = append(opts, booking.WithLocker(booking.NewRedisLocker(rdb, cfg.ServiceName+":lock", cfg.LockTTL, logger)))
	}
	if opened.pool != nil {
		publisher := outbox.NewPublisher(opened.pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: cfg.OutboxPollEvery,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
	} else if w := outbox.NewWriter(cfg.KafkaBrokers); w != nil {
		notifier := outbox.NewNotifier(w)
		defer notifier.Close()
		opts = append(opts, booking.WithNotifier(notifier))
	}

	svc := booking.NewService(conv, opened.store, logger, booking.Config{
		Window:          cfg.Window,
		SlotMinutes:     cfg.SlotMinutes,
		DefaultTimezone: cfg.DefaultTimezone,
	}, opts...)

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewSchedulingHandler(svc, logger).Register(mux)

	var rateLimit httpx.Middleware
	if cfg.RateLimitRedisEnabled && rdb != nil {
		rateLimit = httpx.RateLimit(httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.ServiceName+":rl"), logger, true)
	} else {
		rateLimit = httpx.RateLimit(httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute), logger, false)
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowCredentials: true,
			MaxAge:           10 * time.Minute,
		}),
		rateLimit,
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ops := grpcx.NewOpsServer(logger, checks...)
	go ops.WatchReadiness(ctx, 10*time.Second)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "port", cfg.GRPCPort, "err", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("grpc ops server starting", "addr", lis.Addr().String())
		if err := ops.Serve(lis); err != nil {
			logger.Error("grpc ops server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting",
			"addr", srv.Addr,
			"store", cfg.StoreDriver,
			"default_timezone", cfg.DefaultTimezone,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	ops.Stop()
	logger.Info("http server stopped")
}
