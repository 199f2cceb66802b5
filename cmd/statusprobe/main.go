package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/united-manufacturing-hub/umh-utils/env"
	"github.com/united-manufacturing-hub/umh-utils/logger"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/persistence/factory"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
)

func main() {
	logLevel, _ := env.GetAsString("LOGGING_LEVEL", false, "PRODUCTION") //nolint:errcheck
	log := logger.New(logLevel)
	defer func(logger *zap.SugaredLogger) {
		err := logger.Sync()
		if err != nil {
			panic(err)
		}
	}(log)

	// Prometheus
	metricsPath := "/metrics"
	metricsPort := ":2112"
	zap.S().Debugf("Setting up metrics %s %v", metricsPath, metricsPort)
	http.Handle(metricsPath, promhttp.Handler())
	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe(metricsPort, nil)
		if err != nil {
			zap.S().Errorf("Error starting metrics: %s", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := factory.NewRepositoryFromEnv(ctx)
	cancel()
	if err != nil {
		zap.S().Fatalf("Failed to create repository: %s", err)
	}

	zap.S().Debug("Starting healthcheck")
	handler := healthcheck.NewHandler()
	handler.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000000))
	handler.AddReadinessCheck("database", health.Check(repo.HealthCheck()))
	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe("0.0.0.0:8086", handler)
		if err != nil {
			zap.S().Errorf("Error starting healthcheck: %s", err)
		}
	}()

	result := repo.HealthCheck().DoHealthCheck(context.Background())
	zap.S().Infof("Database health: %s (%s)", result.Status, result.Service)

	awaitShutdown(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := repo.Close(shutdownCtx); err != nil {
			zap.S().Errorf("Failed to close repository: %s", err)
		}
	})
}

// awaitShutdown blocks until SIGTERM or SIGINT, then runs the cleanup.
func awaitShutdown(cleanup func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigs
	zap.S().Infof("Received signal %s, shutting down", sig)
	cleanup()
	zap.S().Info("Shutdown complete")
}
