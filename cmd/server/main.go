package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gurkanbulca/taskboard/internal/config"
	"github.com/gurkanbulca/taskboard/internal/grpcapi"
	"github.com/gurkanbulca/taskboard/internal/httpapi"
	"github.com/gurkanbulca/taskboard/internal/middleware"
	"github.com/gurkanbulca/taskboard/internal/seed"
	"github.com/gurkanbulca/taskboard/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := config.ConfigureLogging(cfg.Log); err != nil {
		log.Fatalf("Invalid logging configuration: %v", err)
	}

	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}
	defer st.Close()

	gw := service.NewGateway(st.tasks, st.categories, service.WithValidation(service.ValidationConfig{
		MaxTitleLength:       cfg.Validation.MaxTitleLength,
		MaxDescriptionLength: cfg.Validation.MaxDescriptionLength,
		MaxNameLength:        cfg.Validation.MaxNameLength,
	}))

	if cfg.Storage.SeedData {
		if err := loadSeed(ctx, gw); err != nil {
			log.WithError(err).Fatal("Failed to load seed data")
		}
	}

	metadataExtractor := middleware.NewMetadataExtractorInterceptor()
	errorMapper := middleware.NewErrorInterceptor()

	// The logging interceptor runs innermost so it sees domain errors before
	// they are mapped to statuses.
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			metadataExtractor.Unary(),
			errorMapper.Unary(),
			middleware.LoggingInterceptor,
		),
		grpc.ChainStreamInterceptor(
			metadataExtractor.Stream(),
			errorMapper.Stream(),
		),
	)
	grpcapi.RegisterTaskBoardServer(grpcServer, grpcapi.NewServer(gw))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	if cfg.Server.EnableReflection {
		reflection.Register(grpcServer)
		log.Info("gRPC reflection enabled (disable in production)")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	go func() {
		log.WithField("port", cfg.Server.GRPCPort).Info("gRPC server listening")
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	api := httpapi.New(gw)
	go func() {
		log.WithField("port", cfg.Server.HTTPPort).Info("HTTP API listening")
		if err := api.Start(":" + cfg.Server.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown")
	}
	grpcServer.GracefulStop()
	log.Info("Server shutdown complete")
}

func loadSeed(ctx context.Context, gw *service.Gateway) error {
	fixtures, err := seed.Default()
	if err != nil {
		return err
	}
	_, err = seed.Load(ctx, gw, fixtures)
	return err
}
