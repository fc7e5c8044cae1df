package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"token-radar/internal/api"
	"token-radar/internal/config"
	"token-radar/internal/stream"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr   string
		noFeed bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the push feed and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.load()
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return serve(cmd.Context(), cfg, !noFeed, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	cmd.Flags().BoolVar(&noFeed, "no-feed", false, "disable the push feed and rely on polling")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, withFeed bool, logger *zap.Logger) error {
	addr := cfg.HTTPAddr
	a, err := newApp(ctx, cfg, logger, withFeed)
	if err != nil {
		return err
	}
	defer a.close()

	feedDone := make(chan struct{})
	var status api.FeedStatus
	if a.feed != nil {
		status = feedStatus{a.feed}
		go func() {
			defer close(feedDone)
			if err := a.feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("feed stopped", zap.Error(err))
			}
		}()
	} else {
		close(feedDone)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(a.scanner, status, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	select {
	case <-feedDone:
	case <-shutdownCtx.Done():
		logger.Warn("feed did not stop before shutdown deadline")
	}

	logger.Info("server stopped")
	return nil
}

// feedStatus adapts stream.Feed to api.FeedStatus.
type feedStatus struct {
	feed *stream.Feed
}

func (f feedStatus) State() string { return f.feed.State().String() }
func (f feedStatus) Len() int      { return f.feed.Len() }
