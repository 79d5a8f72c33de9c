// Command fetch-cards pages through the upstream card catalogue and writes
// a local JSON index, which cmd/seed loads into Postgres.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/jonanatree/cardbinder/internal/tcgio"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
)

// Options controls the ingestion run. All fields have workable defaults;
// a TOML file can override them.
type Options struct {
	Fetch FetchOptions `toml:"fetch"`
}

type FetchOptions struct {
	PageSize     int     `toml:"page_size"`
	MaxCards     int     `toml:"max_cards"` // 0 = fetch everything
	Output       string  `toml:"output"`
	RateLimitRPS float64 `toml:"rate_limit_rps"`
}

func defaultOptions() Options {
	return Options{
		Fetch: FetchOptions{
			PageSize:     100,
			MaxCards:     1000,
			Output:       "data/cards-index.json",
			RateLimitRPS: 2,
		},
	}
}

func loadOptions(path string) (Options, error) {
	opts := defaultOptions()
	if path == "" {
		return opts, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file: %w", err)
	}
	if err := toml.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("parsing options file: %w", err)
	}
	return opts, nil
}

type index struct {
	Data       []tcgio.Card `json:"data"`
	TotalCount int          `json:"totalCount"`
}

func main() {
	configPath := flag.String("config", "", "optional TOML options file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout))
	_ = godotenv.Load()

	opts, err := loadOptions(*configPath)
	if err != nil {
		logger.Error("loading options", "err", err)
		os.Exit(1)
	}

	client := tcgio.New(
		os.Getenv("POKEMON_TCG_BASE_URL"),
		os.Getenv("POKEMON_TCG_API_KEY"),
		tcgio.WithLimiter(rate.NewLimiter(rate.Limit(opts.Fetch.RateLimitRPS), 1)),
	)

	if err := run(context.Background(), logger, client, opts.Fetch); err != nil {
		logger.Error("fetching cards", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, client *tcgio.Client, opts FetchOptions) error {
	var all []tcgio.Card

	for page := 1; ; page++ {
		logger.Info("fetching page", "page", page, "collected", len(all))

		p, err := client.ListCards(ctx, page, opts.PageSize)
		if err != nil {
			// Keep a partial index rather than losing the whole run.
			if len(all) > 0 {
				logger.Warn("stopping early, saving partial index", "err", err, "collected", len(all))
				break
			}
			return err
		}

		all = append(all, p.Data...)

		if opts.MaxCards > 0 && len(all) >= opts.MaxCards {
			all = all[:opts.MaxCards]
			break
		}
		if len(p.Data) < opts.PageSize || len(all) >= p.TotalCount {
			break
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	out, err := json.MarshalIndent(index{Data: all, TotalCount: len(all)}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := os.WriteFile(opts.Output, out, 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	logger.Info("saved cards index", "path", opts.Output, "cards", len(all))
	return nil
}
