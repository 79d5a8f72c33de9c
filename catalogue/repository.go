package catalogue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonanatree/cardbinder/catalogue/models"
	"github.com/lib/pq"
)

var ErrNotFound = fmt.Errorf("not found")

// Repository runs card catalogue queries against Postgres. Cards are
// read-only from the application's point of view; they are written by the
// seed command only.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListCards returns one page of cards plus the total count of cards
// matching the same filters. The limit is clamped to MaxPageSize; page
// must be >= 1 (the API validates this before calling).
//
// The page query and the count query run concurrently and share one WHERE
// clause. A failure on either side fails the whole call; there is no
// partial-result fallback.
func (r *Repository) ListCards(ctx context.Context, page, limit int, filters Filters) ([]models.Card, int, error) {
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := (page - 1) * limit

	where, args := filters.whereClause()

	dataQuery := fmt.Sprintf(`
		SELECT id, name, set_name, rarity, image_small
		FROM cards
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, where, filters.orderClause(), len(args)+1, len(args)+2)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM cards %s`, where)

	countCh := make(chan error, 1)
	var total int
	go func() {
		countCh <- r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	}()

	dataArgs := append(append([]any{}, args...), limit, offset)
	rows, dataErr := r.db.QueryContext(ctx, dataQuery, dataArgs...)

	var cards []models.Card
	if dataErr == nil {
		defer rows.Close()
		for rows.Next() {
			var c models.Card
			if err := rows.Scan(&c.ID, &c.Name, &c.SetName, &c.Rarity, &c.ImageSmall); err != nil {
				dataErr = err
				break
			}
			cards = append(cards, c)
		}
		if dataErr == nil {
			dataErr = rows.Err()
		}
	}

	countErr := <-countCh

	if dataErr != nil {
		return nil, 0, fmt.Errorf("listing cards: %w", dataErr)
	}
	if countErr != nil {
		return nil, 0, fmt.Errorf("counting cards: %w", countErr)
	}

	if cards == nil {
		cards = []models.Card{}
	}
	return cards, total, nil
}

// GetCard returns the full detail record for a card, including its price
// points. Returns ErrNotFound when the id is unknown.
func (r *Repository) GetCard(ctx context.Context, id string) (*models.CardDetail, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, set_name, rarity, image_small,
		       COALESCE(number, ''), COALESCE(hp, ''), COALESCE(supertype, ''),
		       types, abilities, attacks, weaknesses, resistances,
		       COALESCE(artist, '')
		FROM cards
		WHERE id = $1
	`, id)

	var (
		d          models.CardDetail
		abilities  []byte
		attacks    []byte
		weaknesses []byte
		resists    []byte
	)
	err := row.Scan(
		&d.ID, &d.Name, &d.SetName, &d.Rarity, &d.ImageSmall,
		&d.Number, &d.HP, &d.Supertype,
		pq.Array(&d.Types), &abilities, &attacks, &weaknesses, &resists,
		&d.Artist,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting card: %w", err)
	}

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{abilities, &d.Abilities},
		{attacks, &d.Attacks},
		{weaknesses, &d.Weaknesses},
		{resists, &d.Resistances},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decoding card detail: %w", err)
		}
	}

	prices, err := r.listPrices(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Prices = prices

	return &d, nil
}

func (r *Repository) listPrices(ctx context.Context, cardID string) ([]models.CardPrice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source, variant, low, mid, high, market, updated_at
		FROM card_prices
		WHERE card_id = $1
		ORDER BY source, variant
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("listing card prices: %w", err)
	}
	defer rows.Close()

	prices := []models.CardPrice{}
	for rows.Next() {
		var p models.CardPrice
		if err := rows.Scan(&p.Source, &p.Variant, &p.Low, &p.Mid, &p.High, &p.Market, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning card price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// ListSets returns the distinct set names, for filter population.
func (r *Repository) ListSets(ctx context.Context) ([]string, error) {
	return r.listDistinct(ctx, `SELECT DISTINCT set_name FROM cards ORDER BY set_name`)
}

// ListRarities returns the distinct non-null rarities.
func (r *Repository) ListRarities(ctx context.Context) ([]string, error) {
	return r.listDistinct(ctx, `SELECT DISTINCT rarity FROM cards WHERE rarity IS NOT NULL ORDER BY rarity`)
}

func (r *Repository) listDistinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing distinct values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Ping reports database readiness.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
