// Package cli wires configuration, logging and the long-running services
// behind the blackjack command.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/blackjack/internal/config"
)

var (
	cfg    config.Config
	logger *logrus.Logger
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = config.Load()

	rootCmd := &cobra.Command{
		Use:   "blackjack",
		Short: "Multiplayer blackjack session server",
		Long: `blackjack hosts small turn-based blackjack sessions over HTTP and
WebSocket, and optionally archives accepted actions through a Redis-fed
historian into Postgres.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: trace, debug, info, warn, error (env: LOG_LEVEL)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistorianCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l, nil
}
