package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/jason-s-yu/blackjack/internal/handlers"
	"github.com/jason-s-yu/blackjack/internal/historian"
	"github.com/jason-s-yu/blackjack/internal/random"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port (env: PORT)")
	return cmd
}

func serve(ctx context.Context) error {
	var recorder historian.Recorder = historian.NopRecorder{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// Games still run without an archive.
			logger.WithError(err).Warn("redis unavailable, actions will not be recorded")
		} else {
			recorder = historian.NewRedisRecorder(rdb, cfg.Redis.Queue)
			logger.WithField("queue", cfg.Redis.Queue).Info("recording actions to redis")
		}
	}

	store := game.NewStore(random.New(),
		game.WithRecorder(recorder),
		game.WithLogger(logrus.NewEntry(logger)),
	)
	defer store.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewServer(store, logger, cfg).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown; closing the
	// store ends their snapshot streams.
	store.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
