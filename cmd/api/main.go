package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/clubadmin/internal/api"
	"example.com/clubadmin/internal/auth"
	"example.com/clubadmin/internal/calendar"
	"example.com/clubadmin/internal/config"
	"example.com/clubadmin/internal/domain"
	"example.com/clubadmin/internal/outbox"
	"example.com/clubadmin/internal/persistence/memory"
	persistence "example.com/clubadmin/internal/persistence/postgres"
	httptransport "example.com/clubadmin/internal/transport/http"
)

type repositories interface {
	domain.ActivityRepository
	domain.TemplateRepository
	domain.EventRepository
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	loc, _ := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo       repositories
		dispatcher *outbox.Dispatcher
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Printf("using in-memory storage; outbox dispatch disabled")
		repo = memory.NewRepository()
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		repo = persistence.NewRepository(pool, persistence.WithLogger(log.New(os.Stderr, "[postgres] ", log.LstdFlags)))

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
	}

	service := domain.NewService(repo, repo, repo,
		domain.WithLogger(log.New(os.Stderr, "[schedule] ", log.LstdFlags)),
		domain.WithLocation(loc),
		domain.WithDefaultHost(cfg.DefaultHostUserID),
		domain.WithBatchSize(cfg.BulkSubmitBatch),
	)

	handler := api.NewHandler(service, calendar.Feed{Name: cfg.CalendarName})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	accessLog := log.New(os.Stderr, "[http] ", log.LstdFlags)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:           cfg.HTTPAddress,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, httptransport.RequestLogger(accessLog, httptransport.CORS(cfg.CORSAllowedOrigin, authMiddleware.Wrap(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("clubadmin api listening on %s (storage=%s, tz=%s)", cfg.HTTPAddress, cfg.StorageDriver, loc)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
