package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockpipeline/internal/config"
	"stockpipeline/internal/fetch"
	"stockpipeline/internal/pipeline"
	"stockpipeline/internal/schedule"
	"stockpipeline/internal/store"
	"stockpipeline/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pipeline.yaml", "path to config file")
	once := flag.Bool("once", false, "run the pipeline immediately and exit")
	flag.Parse()

	// A .env file is optional; environment variables referenced from the
	// config are expanded at load time.
	_ = godotenv.Load()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting pipeline",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"symbols", len(cfg.Symbols),
		"schedule", cfg.Schedule.Cron,
		"api_url", cfg.API.BaseURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	st, err := store.Open(ctx, cfg.Database, cfg.Writer, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Create provider client and orchestrator
	client := fetch.NewClient(
		cfg.API.BaseURL,
		cfg.API.APIKey,
		fetch.WithLogger(logger),
		fetch.WithTimeout(cfg.API.Timeout),
		fetch.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		fetch.WithMaxBackoff(cfg.API.MaxBackoff),
		fetch.WithOutputSize(cfg.API.OutputSize),
	)

	pipe := pipeline.New(
		pipeline.Config{Symbols: cfg.Symbols},
		client,
		st,
		fetch.NewPacer(cfg.Schedule.PoliteDelay),
		logger,
	)

	sched := schedule.New(pipe, st, cfg.Schedule.RunTimeout, logger)

	if *once {
		res := sched.RunNow(ctx)
		if !res.Succeeded {
			os.Exit(1)
		}
		return
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		logger.Error("failed to register schedule", "error", err)
		os.Exit(1)
	}
	sched.Start()

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(st, sched),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("pipeline running",
		"schedule", cfg.Schedule.Cron,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("pipeline stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(st *store.Store, sched *schedule.Scheduler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check database
		if err := st.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Report the most recent run
		if last, ok := sched.LastResult(); ok {
			health.Components["last_run"] = map[string]any{
				"succeeded":    last.Succeeded,
				"rows_written": last.RowsWritten,
				"warnings":     len(last.Warnings),
			}
			if !last.Succeeded {
				health.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
