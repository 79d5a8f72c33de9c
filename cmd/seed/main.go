// Command seed loads a cards index produced by cmd/fetch-cards into
// Postgres. Re-running it is safe: existing cards are left alone and price
// points are refreshed.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonanatree/cardbinder/internal/tcgio"
	"github.com/lib/pq"
	"golang.org/x/exp/slog"
)

type index struct {
	Data []tcgio.Card `json:"data"`
}

func main() {
	input := flag.String("input", "data/cards-index.json", "cards index file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout))
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logger.Error("DB_DSN is required")
		os.Exit(1)
	}

	if err := run(context.Background(), logger, dsn, *input); err != nil {
		logger.Error("seeding cards", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, dsn, input string) error {
	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}
	var idx index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return fmt.Errorf("parsing index: %w", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, card := range idx.Data {
		if err := insertCard(ctx, tx, card); err != nil {
			return fmt.Errorf("inserting card %s: %w", card.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Info("seeded cards", "count", len(idx.Data))
	return nil
}

func insertCard(ctx context.Context, tx *sql.Tx, card tcgio.Card) error {
	types := card.Types
	if types == nil {
		// Trainer and energy cards have no types; the column is NOT NULL.
		types = []string{}
	}
	abilities, _ := json.Marshal(card.Abilities)
	attacks, _ := json.Marshal(card.Attacks)
	weaknesses, _ := json.Marshal(card.Weaknesses)
	resistances, _ := json.Marshal(card.Resistances)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO cards (id, name, set_name, rarity, image_small,
		                   number, hp, supertype, types,
		                   abilities, attacks, weaknesses, resistances,
		                   artist, price_market)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''),
		        $6, $7, $8, $9,
		        $10, $11, $12, $13,
		        $14, $15)
		ON CONFLICT (id) DO NOTHING
	`,
		card.ID, card.Name, card.Set.Name, card.Rarity, card.Images.Small,
		card.Number, card.HP, card.Supertype, pq.Array(types),
		abilities, attacks, weaknesses, resistances,
		card.Artist, marketPrice(card),
	)
	if err != nil {
		return err
	}

	if card.TCGPlayer == nil {
		return nil
	}
	updatedAt := parsePriceDate(card.TCGPlayer.UpdatedAt)
	for variant, figures := range card.TCGPlayer.Prices {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO card_prices (card_id, source, variant, low, mid, high, market, updated_at)
			VALUES ($1, 'tcgplayer', $2, $3, $4, $5, $6, $7)
			ON CONFLICT (card_id, source, variant) DO UPDATE
			SET low = EXCLUDED.low, mid = EXCLUDED.mid, high = EXCLUDED.high,
			    market = EXCLUDED.market, updated_at = EXCLUDED.updated_at
		`, card.ID, variant, figures.Low, figures.Mid, figures.High, figures.Market, updatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// marketPrice picks the figure used for list filtering and sorting: the
// normal-variant market price when present, otherwise the first variant
// that has one.
func marketPrice(card tcgio.Card) *float64 {
	if card.TCGPlayer == nil {
		return nil
	}
	if figures, ok := card.TCGPlayer.Prices["normal"]; ok && figures.Market != nil {
		return figures.Market
	}
	for _, variant := range []string{"holofoil", "reverseHolofoil"} {
		if figures, ok := card.TCGPlayer.Prices[variant]; ok && figures.Market != nil {
			return figures.Market
		}
	}
	for _, figures := range card.TCGPlayer.Prices {
		if figures.Market != nil {
			return figures.Market
		}
	}
	return nil
}

func parsePriceDate(s string) time.Time {
	if t, err := time.Parse("2006/01/02", s); err == nil {
		return t
	}
	return time.Now()
}
