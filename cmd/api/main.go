package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/worklog-service/internal/config"
	"github.com/Dan9191/worklog-service/internal/handler"
	"github.com/Dan9191/worklog-service/internal/jobs"
	"github.com/Dan9191/worklog-service/internal/repository"
	"github.com/Dan9191/worklog-service/internal/service"
	"github.com/Dan9191/worklog-service/internal/token"
	"github.com/Dan9191/worklog-service/internal/utils"
	"github.com/Dan9191/worklog-service/internal/utils/email"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	hasher := utils.NewArgon2Hasher(utils.Argon2Params{
		Memory:      cfg.Argon2Memory,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
	})
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	svc := service.NewService(repo, hasher, tokens, logger)
	h := handler.NewHandler(svc, logger)

	// Schedule background jobs
	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.Add("reconcile", cfg.ReconcileSchedule, jobs.NewReconcileJob(svc, logger)); err != nil {
		logger.Fatalf("Failed to schedule job: %v", err)
	}
	sender := email.NewSender(cfg, logger)
	report := jobs.NewWeeklyReportJob(svc, sender, cfg.ReportRecipients, logger)
	if err := scheduler.Add("weekly-report", cfg.ReportSchedule, report); err != nil {
		logger.Fatalf("Failed to schedule job: %v", err)
	}
	scheduler.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, tokens, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s (%s)", addr, cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(ctx)
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
