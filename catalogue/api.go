package catalogue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jonanatree/cardbinder/catalogue/models"
	"github.com/jonanatree/cardbinder/internal/tcgio"
	"github.com/jonanatree/cardbinder/internal/web"
	"golang.org/x/exp/slog"
)

// CardStore is the repository surface the API needs. *Repository
// implements it; tests substitute a stub.
type CardStore interface {
	ListCards(ctx context.Context, page, limit int, filters Filters) ([]models.Card, int, error)
	GetCard(ctx context.Context, id string) (*models.CardDetail, error)
	ListSets(ctx context.Context) ([]string, error)
	ListRarities(ctx context.Context) ([]string, error)
}

// API is the HTTP API for the card catalogue.
type API struct {
	cards  CardStore
	search *SearchProxy
	logger *slog.Logger
}

func NewAPI(cards CardStore, search *SearchProxy, logger *slog.Logger) *API {
	return &API{
		cards:  cards,
		search: search,
		logger: logger,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/cards", func(r chi.Router) {
		r.Get("/", a.listCards)
		r.Get("/sets", a.listSets)
		r.Get("/rarities", a.listRarities)
		r.Get("/search", a.searchCards)
		r.Get("/{cardID}", a.getCard)
	})
}

const defaultPageSize = 10

func (a *API) listCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var issues []web.Issue

	page := parsePositiveInt(q.Get("page"), 1, "page", &issues)
	limit := parsePositiveInt(q.Get("limit"), defaultPageSize, "limit", &issues)

	filters := Filters{
		Search:   q.Get("search"),
		Set:      q.Get("set"),
		Rarity:   q.Get("rarity"),
		CardType: q.Get("cardType"),
	}
	filters.MinPrice = parsePrice(q.Get("minPrice"), "minPrice", &issues)
	filters.MaxPrice = parsePrice(q.Get("maxPrice"), "maxPrice", &issues)

	if sort := q.Get("priceSort"); ValidPriceSort(sort) {
		filters.PriceSort = sort
	} else {
		issues = append(issues, web.Issue{
			Path:    "priceSort",
			Message: fmt.Sprintf("priceSort must be %q or %q", PriceSortAsc, PriceSortDesc),
		})
	}

	if len(issues) > 0 {
		web.RespondIssues(w, issues)
		return
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	cards, total, err := a.cards.ListCards(r.Context(), page, limit, filters)
	if err != nil {
		a.logger.Error("listing cards", "err", err)
		web.RespondError(w, http.StatusInternalServerError, "Failed to fetch cards")
		return
	}

	web.RespondJSON(w, http.StatusOK, models.CardsPage{
		Page:  page,
		Limit: limit,
		Total: total,
		Data:  cards,
	})
}

func (a *API) getCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	card, err := a.cards.GetCard(r.Context(), cardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			web.RespondError(w, http.StatusNotFound, "Card not found")
			return
		}
		a.logger.Error("getting card", "card_id", cardID, "err", err)
		web.RespondError(w, http.StatusInternalServerError, "Failed to fetch card")
		return
	}

	web.RespondJSON(w, http.StatusOK, card)
}

func (a *API) listSets(w http.ResponseWriter, r *http.Request) {
	sets, err := a.cards.ListSets(r.Context())
	if err != nil {
		a.logger.Error("listing sets", "err", err)
		web.RespondError(w, http.StatusInternalServerError, "Failed to fetch sets")
		return
	}
	web.RespondJSON(w, http.StatusOK, sets)
}

func (a *API) listRarities(w http.ResponseWriter, r *http.Request) {
	rarities, err := a.cards.ListRarities(r.Context())
	if err != nil {
		a.logger.Error("listing rarities", "err", err)
		web.RespondError(w, http.StatusInternalServerError, "Failed to fetch rarities")
		return
	}
	web.RespondJSON(w, http.StatusOK, rarities)
}

func (a *API) searchCards(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		web.RespondError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	data, err := a.search.Search(r.Context(), query)
	if err != nil {
		var se *tcgio.StatusError
		if errors.As(err, &se) {
			web.RespondError(w, se.Code, se.Message)
			return
		}
		a.logger.Error("searching cards", "err", err)
		web.RespondError(w, http.StatusBadGateway, "Upstream search failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// parsePositiveInt validates a page/limit style parameter: optional, but
// when present it must be an integer >= 1. Invalid values are reported
// instead of being forwarded as negative offsets.
func parsePositiveInt(raw string, def int, path string, issues *[]web.Issue) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		*issues = append(*issues, web.Issue{Path: path, Message: path + " must be a positive integer"})
		return def
	}
	return n
}

func parsePrice(raw, path string, issues *[]web.Issue) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		*issues = append(*issues, web.Issue{Path: path, Message: path + " must be a non-negative number"})
		return nil
	}
	return &f
}
