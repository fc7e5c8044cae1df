// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"token-radar/internal/cache"
	"token-radar/internal/cosmic"
	"token-radar/internal/dexscreener"
	"token-radar/internal/discovery"
	"token-radar/internal/enrich"
	"token-radar/internal/fetch"
	"token-radar/internal/pipeline"
	"token-radar/internal/stream"
)

// Config is the full runtime configuration.
type Config struct {
	// Server
	HTTPAddr string
	LogLevel string

	// Storage
	PostgresDSN   string
	ClickhouseDSN string
	RedisAddr     string
	RecallFile    string
	UseMemory     bool

	// Upstreams
	FeedURL            string
	FeedSubscribe      string
	FeedBufferSize     int
	FeedReconnectDelay time.Duration
	ListingURL         string
	ListingChain       string
	PairsBaseURL       string
	KpURL              string

	// Fetcher
	FetchTimeout     time.Duration
	FetchAttempts    int
	DexScreenerRPS   float64
	DexScreenerBurst int

	// Scan
	MaxFDV            float64
	MinLiquidity      float64
	MaxAge            time.Duration
	ResultCap         int
	CacheTTL          time.Duration
	EnrichLimit       int
	EnrichConcurrency int
	SyntheticEnabled  bool
	SyntheticSeed     string
}

// LoadEnv reads the .env file named by RADAR_ENV (or .env by default),
// then its .secret sidecar if present. Variables already set in the
// process environment win.
func LoadEnv() {
	envFile := os.Getenv("RADAR_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; plain env vars still apply.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")
}

// Load loads the env files and returns the resulting Config.
func Load() Config {
	LoadEnv()
	return FromEnv()
}

// FromEnv builds a Config from the current environment, applying
// defaults for unset or unparseable values.
func FromEnv() Config {
	return Config{
		HTTPAddr: str("HTTP_ADDR", ":8080"),
		LogLevel: strings.ToLower(str("LOG_LEVEL", "info")),

		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN: os.Getenv("CLICKHOUSE_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RecallFile:    str("RECALL_FILE", "data/recall.json"),
		UseMemory:     boolean("USE_MEMORY", false),

		FeedURL:            str("FEED_URL", stream.DefaultURL),
		FeedSubscribe:      str("FEED_SUBSCRIBE", string(stream.DefaultSubscribeMessage)),
		FeedBufferSize:     positiveInt("FEED_BUFFER_SIZE", stream.DefaultBufferSize),
		FeedReconnectDelay: duration("FEED_RECONNECT_DELAY", stream.DefaultConfig().ReconnectDelay),
		ListingURL:         str("LISTING_URL", discovery.DefaultListingURL),
		ListingChain:       str("LISTING_CHAIN", "solana"),
		PairsBaseURL:       str("PAIRS_BASE_URL", dexscreener.DefaultBaseURL),
		KpURL:              str("KP_URL", cosmic.DefaultKpURL),

		FetchTimeout:     duration("FETCH_TIMEOUT", fetch.DefaultTimeout),
		FetchAttempts:    positiveInt("FETCH_ATTEMPTS", fetch.DefaultMaxAttempts),
		DexScreenerRPS:   positiveFloat("DEXSCREENER_RPS", 5),
		DexScreenerBurst: positiveInt("DEXSCREENER_BURST", 5),

		MaxFDV:            positiveFloat("MAX_FDV", pipeline.DefaultMaxFDV),
		MinLiquidity:      nonNegativeFloat("MIN_LIQUIDITY", pipeline.DefaultMinLiquidity),
		MaxAge:            duration("MAX_AGE", pipeline.DefaultMaxAge),
		ResultCap:         positiveInt("RESULT_CAP", pipeline.DefaultResultCap),
		CacheTTL:          duration("CACHE_TTL", cache.DefaultTTL),
		EnrichLimit:       positiveInt("ENRICH_LIMIT", enrich.DefaultConfig().Limit),
		EnrichConcurrency: positiveInt("ENRICH_CONCURRENCY", enrich.DefaultConfig().Concurrency),
		SyntheticEnabled:  boolean("SYNTHETIC_ENABLED", true),
		SyntheticSeed:     str("SYNTHETIC_SEED", "token-radar"),
	}
}

// Filter returns the scan filter bounds.
func (c Config) Filter() pipeline.Filter {
	return pipeline.Filter{
		MaxFDV:       c.MaxFDV,
		MinLiquidity: c.MinLiquidity,
		MaxAge:       c.MaxAge,
	}
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func positiveInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func positiveFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func nonNegativeFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

// duration accepts Go duration strings ("15s") or bare seconds ("15").
func duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

func boolean(key string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return b
}
