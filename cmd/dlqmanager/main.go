package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/clubadmin/internal/config"
	"example.com/clubadmin/internal/outbox"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	logger := log.New(os.Stderr, "[dlq] ", log.LstdFlags)
	manager := outbox.NewDLQManager(pool, cfg.DLQMaxRetries, cfg.DLQBaseDelay, logger)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler(), ReadHeaderTimeout: 2 * time.Second}
	go func() {
		log.Printf("dlq manager metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server error: %v", err)
		}
	}()

	logger.Printf("replaying club events every %s (batch=%d maxRetries=%d baseDelay=%s)",
		cfg.DLQPollInterval, cfg.DLQBatchSize, cfg.DLQMaxRetries, cfg.DLQBaseDelay)

	replay(ctx, manager, cfg.DLQBatchSize, logger)

	ticker := time.NewTicker(cfg.DLQPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Println("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				log.Printf("metrics server shutdown error: %v", err)
			}
			cancel()
			return
		case <-ticker.C:
			replay(ctx, manager, cfg.DLQBatchSize, logger)
		}
	}
}

// replay runs one DLQ pass and logs what happened to the club events in it.
func replay(ctx context.Context, manager *outbox.DLQManager, batchSize int, logger *log.Logger) {
	pass, err := manager.RunOnce(ctx, batchSize)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Printf("pass finished with errors: %v", err)
	}
	if pass.Handled > 0 {
		logger.Printf("pass handled=%d requeued=%d retried=%d quarantined=%d backlog=%d",
			pass.Handled, pass.Requeued, pass.Retried, pass.Quarantined, pass.Backlog)
	}
}
