package cli

import (
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/blackjack/internal/database"
	"github.com/jason-s-yu/blackjack/internal/historian"
)

func newHistorianCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "historian",
		Short: "Drain recorded actions from Redis into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := database.Connect(ctx, cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := database.EnsureSchema(ctx, pool); err != nil {
				return err
			}

			addr := cfg.Redis.Addr
			if addr == "" {
				addr = "localhost:6379"
			}
			rdb := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.Redis.DB})
			defer rdb.Close()

			svc := historian.NewService(rdb, database.NewActionSink(pool), historian.Config{
				Queue:      cfg.Redis.Queue,
				BatchSize:  cfg.Historian.BatchSize,
				FlushDelay: cfg.Historian.FlushDelay,
			}, logger)
			return svc.Run(ctx)
		},
	}
}
