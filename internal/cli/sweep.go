package cli

import (
	"fmt"

	"assessment-engine/internal/config"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSweepCmd runs one expiry sweep and exits. Useful when the engine is
// deployed without its background scheduler, e.g. driven by cron.
func NewSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Force-finalize attempts whose deadline has passed, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("sweep requires postgres; memory attempts do not outlive a process")
			}
			log, err := newLogger(cfg.Server.Mode)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			var redisClient *redis.Client
			if cfg.Redis.Addr != "" {
				redisClient = redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
			}

			service, _ := buildEngine(cfg, pool, redisClient, log)
			n, err := service.SweepExpired(ctx)
			if err != nil {
				return err
			}
			log.Info("sweep complete", zap.Int("finalized", n))
			return nil
		},
	}
}
