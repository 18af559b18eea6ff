package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"

	adminApi "campus-rickshaw/internal/admin/api"
	adminApp "campus-rickshaw/internal/admin/app"
	adminRepo "campus-rickshaw/internal/admin/repo"
	authApi "campus-rickshaw/internal/auth/api"
	authApp "campus-rickshaw/internal/auth/app"
	"campus-rickshaw/internal/auth/jwt"
	authRepo "campus-rickshaw/internal/auth/repo"
	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/notify"
	rideApi "campus-rickshaw/internal/ride/api"
	rideApp "campus-rickshaw/internal/ride/app"
	rideRepo "campus-rickshaw/internal/ride/repo"
	"campus-rickshaw/internal/shared/config"
	"campus-rickshaw/internal/shared/db"
	"campus-rickshaw/internal/shared/health"
	"campus-rickshaw/internal/shared/mq"
	"campus-rickshaw/internal/shared/util"
)

func main() {
	logger := util.New()
	logger.Info("Server", "starting campus-rickshaw")

	cfg := config.Load()
	logger.OK("Config", "configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.Connect(ctx, &cfg.Database, logger)
	cancel()
	if err != nil {
		logger.Fatal("Database", err)
	}
	defer pool.Close()

	// The websocket hub is the primary event consumer; RabbitMQ is an
	// optional mirror for external dashboards.
	registry := notify.NewRegistry()
	hub := notify.NewHub(registry, logger)
	bus := event.Fan{hub}

	var rmqConn *amqp091.Connection
	if cfg.MirrorEnabled {
		conn, ch, err := mq.Connect(cfg.RabbitMQ, logger)
		if err != nil {
			logger.Fatal("RabbitMQ", err)
		}
		defer conn.Close()
		defer ch.Close()
		rmqConn = conn
		bus = append(bus, mq.NewMirror(ch, logger))
		logger.OK("RabbitMQ", "event mirror enabled")
	}

	tokens := jwt.NewManager(cfg.JWTSecret)

	authService := authApp.NewAuthService(authRepo.NewCredentialRepo(pool), tokens, bus, logger)
	rideService := rideApp.NewRideService(rideRepo.NewRideRepo(pool), bus, logger)
	adminService := adminApp.NewAdminService(adminRepo.NewAdminRepo(pool), bus, logger)

	authed := authApi.AuthMiddleware(tokens)

	mux := http.NewServeMux()
	authApi.NewHandler(authService, logger).RegisterRoutes(mux)
	rideApi.NewHandler(rideService, logger).RegisterRoutes(mux, authed)
	adminApi.NewHandler(adminService, rideService, logger).RegisterRoutes(mux, authed)
	mux.Handle("GET /api/health", health.Handler("campus-rickshaw", pool, rmqConn, registry))
	mux.Handle("GET /ws", notify.NewWSHandler(registry, tokens, rideService, logger))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: mux,
	}

	go func() {
		logger.OK("HTTP", fmt.Sprintf("listening on :%d", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Warn("Server", "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP", err)
	} else {
		logger.OK("HTTP", "server stopped gracefully")
	}
	logger.Info("Server", "shutdown complete")
}
