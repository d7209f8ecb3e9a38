package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the gRPC health service reported alongside the overall status.
const HealthServiceName = "ocr.extractor.v1.Pipeline"

// HealthReporter mirrors model backend reachability into the standard gRPC health service.
type HealthReporter struct {
	checker  HealthChecker
	interval time.Duration
	srv      *health.Server
	logger   *slog.Logger
}

func NewHealthReporter(checker HealthChecker, interval time.Duration, logger *slog.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &HealthReporter{checker: checker, interval: interval, srv: health.NewServer(), logger: logger}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Register attaches the health service to g.
func (h *HealthReporter) Register(g *grpc.Server) {
	healthpb.RegisterHealthServer(g, h.srv)
}

// Check asks the backend for its status once and publishes the result.
func (h *HealthReporter) Check(ctx context.Context) bool {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	st := h.checker.Health(cctx)
	if st.Healthy {
		h.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.logger.Warn("health.backend.down", "backend", st.Backend, "model", st.Model, "error", st.Error)
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return st.Healthy
}

// Run checks immediately and then every interval until ctx ends, when all services
// are marked NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) {
	h.Check(ctx)
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Check(ctx)
		}
	}
}

func (h *HealthReporter) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(HealthServiceName, status)
}
