// cmd/rsd-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rsd-dataset/internal/common/camunda"
	"rsd-dataset/internal/common/config"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/common/observability"
	"rsd-dataset/internal/runner"
	gd "rsd-dataset/internal/workers/dataset/generate-dataset"
	"rsd-dataset/pkg/codebook"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateForWorker(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid worker config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting RSD dataset worker...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("rsd-worker")
	defer obs.Shutdown()

	ctx := context.Background()

	cb := codebook.Default()
	if cfg.Output.CodebookPath != "" {
		if err := codebook.Save(cb, cfg.Output.CodebookPath); err != nil {
			zapLog.Warn("codebook write failed", zap.Error(err))
		}
	}

	connect := func(name string, op func() error) error {
		return retryWithBackoff(op, 10, 2*time.Second, zapLog, name)
	}

	run, closeClients, err := runner.FromConfig(ctx, cfg, cb, log, obs, connect)
	if err != nil {
		zapLog.Fatal("failed to initialise publication clients", zap.Error(err))
	}
	defer closeClients()

	// --- Zeebe client with retry ---
	var zeebe *camunda.Client
	err = connect("Zeebe client initialization", func() error {
		var err error
		zeebe, err = camunda.NewClient(camunda.DefaultClientConfig(cfg.Camunda.BrokerAddress))
		return err
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("broker", cfg.Camunda.BrokerAddress))

	wcfg := config.GetWorkerConfig(cfg, gd.TaskType)
	var jobWorker *camunda.CamundaWorker
	if wcfg.Enabled {
		handler, err := gd.NewHandler(gd.HandlerOptions{
			Config: gd.LoadConfig(cfg),
			Runner: run,
			Logger: log,
		})
		if err != nil {
			zapLog.Fatal("failed to create generate-dataset handler", zap.Error(err))
		}
		jobWorker = camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      gd.TaskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, log)
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", gd.TaskType))
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := cfg.Metrics.ListenAddress
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping worker...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if jobWorker != nil {
		jobWorker.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("RSD dataset worker stopped gracefully")
}
