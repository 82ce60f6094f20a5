package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/handlers"
)

func route(pattern string, handler http.HandlerFunc) {
	http.HandleFunc(pattern, handlers.WithMetrics(pattern, handler))
}

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(service.Config.Database.MigrationsDir); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	if err := service.EnsureAdmin(); err != nil {
		logger.Error.Fatalf("Failed to ensure bootstrap admin: %v", err)
	}

	authHandler := handlers.NewAuthHandler(service)
	adminHandler := handlers.NewAdminHandler(service)
	candidateHandler := handlers.NewCandidateHandler(service)

	route("GET /api/health", authHandler.HandleHealth)
	route("POST /api/auth/login", authHandler.HandleLogin)
	route("GET /api/auth/session", authHandler.HandleSession)

	route("GET /api/admin/candidates", adminHandler.HandleListCandidates)
	route("POST /api/admin/create-candidate", adminHandler.HandleCreateCandidate)
	route("DELETE /api/admin/candidates/{candidateId}", adminHandler.HandleDeleteCandidate)
	route("POST /api/admin/upload-task", adminHandler.HandleUploadTask)
	route("GET /api/admin/tasks", adminHandler.HandleListTasks)
	route("GET /api/admin/activity", adminHandler.HandleListActivity)
	route("POST /api/admin/evaluate/{taskId}", adminHandler.HandleEvaluate)

	route("GET /api/candidate/tasks", candidateHandler.HandleListTasks)
	route("GET /api/candidate/download/{taskId}", candidateHandler.HandleDownload)
	route("POST /api/candidate/submit/{taskId}", candidateHandler.HandleSubmit)
	route("GET /api/candidate/submissions", candidateHandler.HandleListSubmissions)

	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: service.Config.Server.Port}

	go func() {
		logger.Info.Printf("Starting semla server on %s", service.Config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error.Fatalf("Semla server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Shutting down semla server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error.Printf("Shutdown error: %v", err)
	}
}
