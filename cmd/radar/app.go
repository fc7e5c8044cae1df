package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/cache"
	"token-radar/internal/config"
	"token-radar/internal/cosmic"
	"token-radar/internal/dexscreener"
	"token-radar/internal/discovery"
	"token-radar/internal/enrich"
	"token-radar/internal/fetch"
	"token-radar/internal/pipeline"
	"token-radar/internal/storage"
	chstore "token-radar/internal/storage/clickhouse"
	"token-radar/internal/storage/file"
	"token-radar/internal/storage/memory"
	"token-radar/internal/storage/migrations"
	pgstore "token-radar/internal/storage/postgres"
	"token-radar/internal/stream"
)

// app holds the wired components of one process.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	feed    *stream.Feed // nil unless the push feed is enabled
	scanner *pipeline.Scanner
	recall  storage.RecallStore
	closers []func()
}

// newApp wires every component from cfg. withFeed enables the push feed
// as the primary discovery source; without it discovery falls back to
// polling.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, withFeed bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	recall, err := a.recallStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.recall = recall

	snapshots, err := a.snapshotStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	scanCache, err := a.cache(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	// Upstream clients. DexScreener serves both pairs and listings and
	// gets the rate-limited client.
	general := fetch.NewClient(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxAttempts(cfg.FetchAttempts),
		fetch.WithLogger(logger),
	)
	dex := fetch.NewClient(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxAttempts(cfg.FetchAttempts),
		fetch.WithRateLimit(cfg.DexScreenerRPS, cfg.DexScreenerBurst),
		fetch.WithLogger(logger),
	)

	var synthetic *discovery.Synthetic
	if cfg.SyntheticEnabled {
		synthetic = discovery.NewSynthetic(cfg.SyntheticSeed, uint64(time.Now().UnixNano()))
	}

	var buffer discovery.Buffer
	if withFeed {
		a.feed = stream.NewFeed(stream.Config{
			URL:              cfg.FeedURL,
			SubscribeMessage: []byte(cfg.FeedSubscribe),
			BufferSize:       cfg.FeedBufferSize,
			ReconnectDelay:   cfg.FeedReconnectDelay,
		}, logger.Named("feed"))
		buffer = a.feed
	}

	aggregator := discovery.NewAggregator(
		buffer,
		discovery.NewListingPoller(dex, cfg.ListingURL, cfg.ListingChain),
		synthetic,
		discovery.DefaultConfig(),
		logger.Named("discovery"),
	)

	opts := pipeline.Options{
		Cosmic:     cosmic.NewProvider(general, cfg.KpURL, logger.Named("cosmic")),
		Discoverer: aggregator,
		Cache:      scanCache,
		Recall:     recall,
		Snapshots:  snapshots,
		Filter:     cfg.Filter(),
		ResultCap:  cfg.ResultCap,
		Logger:     logger.Named("pipeline"),
	}
	// Typed nils must not leak into the interfaces.
	var fabricator enrich.Fabricator
	if synthetic != nil {
		fabricator = synthetic
		opts.Fallback = synthetic
	}
	opts.Enricher = enrich.NewStage(
		dexscreener.NewClient(dex, cfg.PairsBaseURL),
		fabricator,
		enrich.Config{Limit: cfg.EnrichLimit, Concurrency: cfg.EnrichConcurrency},
		logger.Named("enrich"),
	)

	a.scanner = pipeline.New(opts)
	return a, nil
}

// recallStore picks memory, PostgreSQL or the JSON file, in that order.
func (a *app) recallStore(ctx context.Context) (storage.RecallStore, error) {
	switch {
	case a.cfg.UseMemory:
		a.logger.Info("recall store: memory")
		return memory.NewRecallStore(), nil

	case a.cfg.PostgresDSN != "":
		pool, err := pgstore.NewPool(ctx, a.cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		a.logger.Info("recall store: postgres")
		return pgstore.NewRecallStore(pool), nil

	default:
		a.logger.Info("recall store: file", zap.String("path", a.cfg.RecallFile))
		return file.NewRecallStore(a.cfg.RecallFile, a.logger.Named("recall")), nil
	}
}

// snapshotStore returns the ClickHouse store when configured, else nil.
func (a *app) snapshotStore(ctx context.Context) (storage.ScoreSnapshotStore, error) {
	if a.cfg.UseMemory {
		return memory.NewScoreSnapshotStore(), nil
	}
	if a.cfg.ClickhouseDSN == "" {
		return nil, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, a.cfg.ClickhouseDSN)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })
	a.logger.Info("score snapshots: clickhouse")
	return chstore.NewScoreSnapshotStore(conn), nil
}

// cache returns a Redis-backed cache when REDIS_ADDR is set.
func (a *app) cache(ctx context.Context) (*cache.Cache, error) {
	if a.cfg.RedisAddr == "" || a.cfg.UseMemory {
		return cache.New(cache.NewMemoryBackend(nil), a.cfg.CacheTTL, a.logger.Named("cache")), nil
	}

	client, err := cache.DialRedis(ctx, a.cfg.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.logger.Info("cache: redis", zap.String("addr", a.cfg.RedisAddr))
	return cache.New(cache.NewRedisBackend(client, ""), a.cfg.CacheTTL, a.logger.Named("cache")), nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
