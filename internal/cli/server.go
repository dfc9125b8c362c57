package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assessment-engine/internal/app"
	"assessment-engine/internal/config"
	"assessment-engine/internal/infra/memory"
	"assessment-engine/internal/infra/postgres"
	redisinfra "assessment-engine/internal/infra/redis"
	transport "assessment-engine/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCmd builds the CLI subcommand to start the engine.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Server.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	service, sweeper := buildEngine(cfg, pool, redisClient, log)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	handler := transport.NewHandler(service, cfg.Server.AdminToken, log)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(cfg.Server.Mode),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting assessment engine", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildEngine picks the infra mix from what is configured: Postgres with an
// optional Redis cache in deployments, plain memory otherwise.
func buildEngine(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) (*app.Service, *app.Sweeper) {
	cacheTTL := config.Duration(cfg.Cache.TTL, 5*time.Minute)
	draftTTL := config.Duration(cfg.Redis.DraftTTL, 24*time.Hour)
	grace := config.Duration(cfg.Sweep.Grace, app.DefaultGrace)
	interval := config.Duration(cfg.Sweep.Interval, time.Minute)

	var (
		assessments app.AssessmentRepository
		attempts    app.AttemptStore
		submissions app.SubmissionStore
		drafts      app.DraftStore
	)
	if pool != nil {
		store := postgres.NewStore(pool)
		attempts, submissions = store, store
		if redisClient != nil {
			assessments = redisinfra.NewAssessmentCache(redisClient, store, cacheTTL)
		} else {
			assessments = memory.NewAssessmentCache(store, cacheTTL)
		}
	} else {
		store := memory.NewStore()
		assessments, attempts, submissions = store, store, store
	}
	if redisClient != nil {
		drafts = redisinfra.NewDraftStore(redisClient, draftTTL)
	} else {
		drafts = memory.NewDraftStore()
	}

	service := app.NewService(assessments, attempts, submissions, drafts, log, app.WithGrace(grace))
	sweeper := app.NewSweeper(service, interval, log)
	return service, sweeper
}
