package handler

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// GRPCServiceName is the service reported by the gRPC health server.
const GRPCServiceName = "inventory.v1.Inventory"

// GRPCHandler exposes the standard gRPC health service so that orchestrators
// can probe the process without going through HTTP.
type GRPCHandler struct {
	server *grpc.Server
	health *health.Server
}

func NewGRPCHandler(logger *slog.Logger) *GRPCHandler {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(GRPCServiceName, healthpb.HealthCheckResponse_SERVING)

	return &GRPCHandler{server: srv, health: hs}
}

func (h *GRPCHandler) Server() *grpc.Server {
	return h.server
}

// Shutdown flips every service to NOT_SERVING and drains in-flight calls.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
	h.server.GracefulStop()
}

func unaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.DebugContext(ctx, "grpc call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
