// Package main is the token-radar command line.
//
// Commands:
//   - serve:   run the push feed and the HTTP API
//   - scan:    run one scan and print it as JSON
//   - recall:  print recent recall entries as JSON
//   - migrate: apply PostgreSQL and ClickHouse migrations
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"token-radar/internal/config"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	envFile   string
	useMemory bool
	logLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "radar",
		Short:         "Discover, score and recall newly listed Solana tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env", "", "env file to load (overrides RADAR_ENV)")
	root.PersistentFlags().BoolVar(&opts.useMemory, "use-memory", false, "use in-memory stores instead of file/PostgreSQL/ClickHouse")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug or info (overrides LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(opts),
		newScanCmd(opts),
		newRecallCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// load resolves configuration with flag overrides applied.
func (o *rootOptions) load() config.Config {
	if o.envFile != "" {
		os.Setenv("RADAR_ENV", o.envFile)
	}
	cfg := config.Load()
	if o.useMemory {
		cfg.UseMemory = true
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg
}

// newLogger returns a development logger for LOG_LEVEL=debug and a
// production logger otherwise.
func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
