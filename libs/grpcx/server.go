package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// OpsServer is the gRPC listener used by orchestrators for health probes.
// Its serving status follows the same ReadyChecks as /readyz.
type OpsServer struct {
	srv    *grpc.Server
	health *health.Server
	checks []runtime.ReadyCheck
	logger *slog.Logger
}

func NewOpsServer(logger *slog.Logger, checks ...runtime.ReadyCheck) *OpsServer {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLoggingInterceptor(logger),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &OpsServer{srv: srv, health: hs, checks: checks, logger: logger}
}

// Refresh runs the ready checks once and publishes the result.
func (s *OpsServer) Refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if failures := runtime.RunChecks(ctx, s.checks); len(failures) > 0 {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("readiness check failed", "failures", failures)
	}
	s.health.SetServingStatus("", st)
}

// WatchReadiness refreshes the health status every interval until ctx is done.
func (s *OpsServer) WatchReadiness(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 10 * time.Second
	}
	s.Refresh(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *OpsServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop marks the service NOT_SERVING so probes drain traffic, then stops gracefully.
func (s *OpsServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
