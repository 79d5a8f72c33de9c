package catalogue

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonanatree/cardbinder/internal/searchcache"
)

// Config is the configuration for the catalogue application.
type Config struct {
	HTTPAddr string
	// DatabaseDSN is the Postgres connection string. Required.
	DatabaseDSN string
	// UpstreamBaseURL points at the Pokémon TCG API.
	UpstreamBaseURL string
	// UpstreamAPIKey is optional; without it upstream calls are
	// unauthenticated and rate-limited harder.
	UpstreamAPIKey string
	// SearchCacheTTL and SearchCacheSize bound the search proxy cache.
	SearchCacheTTL  time.Duration
	SearchCacheSize int
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:        "localhost:4000",
		SearchCacheTTL:  searchcache.DefaultTTL,
		SearchCacheSize: searchcache.DefaultMaxEntries,
	}
}

// ConfigFromEnv builds a Config from the environment. A .env file is
// loaded when present but is not required.
func ConfigFromEnv() *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseDSN = getenv("DB_DSN", "")
	cfg.UpstreamBaseURL = getenv("POKEMON_TCG_BASE_URL", cfg.UpstreamBaseURL)
	cfg.UpstreamAPIKey = getenv("POKEMON_TCG_API_KEY", "")

	if v := getenv("SEARCH_CACHE_TTL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SearchCacheTTL = d
		}
	}
	if v := getenv("SEARCH_CACHE_SIZE", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SearchCacheSize = n
		}
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
