package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rl1809/warehouse-inventory/internal/adapter/handler"
	"github.com/rl1809/warehouse-inventory/internal/adapter/storage"
	"github.com/rl1809/warehouse-inventory/internal/config"
	"github.com/rl1809/warehouse-inventory/internal/core/service"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		store.Close()
		logger.Info("database closed")
	}()

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithLowStockThreshold(cfg.LowStockThreshold),
	}

	// Redis is optional: without REDIS_ADDR every stats call hits the store.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			rdb.Close()
			logger.Info("redis closed")
		}()
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
		svcOpts = append(svcOpts, service.WithCache(storage.NewRedisAdapter(rdb, cfg.CacheTTL)))
	}

	inventory := service.NewInventoryService(store, svcOpts...)

	var grpcHandler *handler.GRPCHandler
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		grpcHandler = handler.NewGRPCHandler(logger)
		go func() {
			logger.Info("gRPC health server listening", "addr", cfg.GRPCAddr)
			if err := grpcHandler.Server().Serve(lis); err != nil {
				logger.Error("gRPC server error", "error", err)
			}
		}()
	}

	httpHandler := handler.NewHTTPHandler(inventory, logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.NewRouter(httpHandler, cfg.CORSOrigin, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
	}
	logger.Info("HTTP server stopped")

	if grpcHandler != nil {
		grpcHandler.Shutdown()
		logger.Info("gRPC server stopped")
	}
	return runErr
}
