package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/courtside/community-api/internal/config"
	"github.com/courtside/community-api/internal/domain/game"
	"github.com/courtside/community-api/internal/domain/rating"
	"github.com/courtside/community-api/internal/infrastructure/jobqueue"
	"github.com/courtside/community-api/internal/infrastructure/repository/memory"
	"github.com/courtside/community-api/internal/infrastructure/repository/postgres"
	"github.com/courtside/community-api/internal/interfaces/httpapi"
	"github.com/courtside/community-api/internal/platform/logging"
	"github.com/courtside/community-api/internal/platform/resilience"
	"github.com/courtside/community-api/internal/usecase"
)

// NewHTTPServer wires repositories, services, and the router into a ready
// http.Server. The returned cleanup closes the database pool and must be
// called after the server has shut down.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	gameRepo, ratingRepo, cleanup, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	ratingService := usecase.NewRatingService(gameRepo, ratingRepo, logger)
	resyncService := usecase.NewRatingResyncService(
		ratingService,
		logger,
		usecase.WithDefaultWorkers(cfg.ResyncMaxWorkers),
	)

	var enqueuer httpapi.ReconcileEnqueuer
	if cfg.QStashEnabled {
		enqueuer = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	handler := httpapi.NewHandler(ratingService, resyncService, enqueuer, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		_ = cleanup(context.Background())
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (game.Repository, rating.Repository, func(context.Context) error, error) {
	noopCleanup := func(context.Context) error { return nil }

	if cfg.DBURL == "" {
		logger.Info("no database configured, using in-memory repositories with demo data")
		gameRepo := memory.NewGameRepository()
		memory.SeedDemoCommunity(gameRepo)
		return gameRepo, memory.NewRatingRepository(), noopCleanup, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("connected to postgres", "db", dbNameFromURL(cfg.DBURL))

	cleanup := func(context.Context) error { return db.Close() }
	return postgres.NewGameRepository(db), postgres.NewRatingRepository(db), cleanup, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := NormalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
