// Package binderclient is the typed client for the catalogue API: a small
// fetch layer plus the filter/pagination state machine the storefront
// drives it with.
package binderclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonanatree/cardbinder/catalogue/models"
	"github.com/jonanatree/cardbinder/users"
)

// APIError is a non-2xx response from the catalogue API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type Client struct {
	Base string
	HTTP *http.Client
}

func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

// Query mirrors the /cards query parameters. Zero values are omitted from
// the query string.
type Query struct {
	Page      int
	Limit     int
	Search    string
	Set       string
	Rarity    string
	CardType  string
	MinPrice  *float64
	MaxPrice  *float64
	PriceSort string
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Set != "" {
		v.Set("set", q.Set)
	}
	if q.Rarity != "" {
		v.Set("rarity", q.Rarity)
	}
	if q.CardType != "" {
		v.Set("cardType", q.CardType)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.PriceSort != "" {
		v.Set("priceSort", q.PriceSort)
	}
	return v
}

// ListCards fetches one page of the catalogue.
func (c *Client) ListCards(ctx context.Context, q Query) (*models.CardsPage, error) {
	var page models.CardsPage
	if err := c.getJSON(ctx, "/cards", q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetCard fetches the full detail record for one card.
func (c *Client) GetCard(ctx context.Context, id string) (*models.CardDetail, error) {
	var detail models.CardDetail
	if err := c.getJSON(ctx, "/cards/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListSets fetches the distinct set names for filter population.
func (c *Client) ListSets(ctx context.Context) ([]string, error) {
	var sets []string
	if err := c.getJSON(ctx, "/cards/sets", nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// ListRarities fetches the distinct rarities for filter population.
func (c *Client) ListRarities(ctx context.Context) ([]string, error) {
	var rarities []string
	if err := c.getJSON(ctx, "/cards/rarities", nil, &rarities); err != nil {
		return nil, err
	}
	return rarities, nil
}

// Search runs a free-text search through the server's upstream proxy and
// returns the payload as-is.
func (c *Client) Search(ctx context.Context, query string) (json.RawMessage, error) {
	v := url.Values{}
	v.Set("q", query)
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/cards/search", v, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetUser fetches one user with their binder.
func (c *Client) GetUser(ctx context.Context, id int) (*users.User, error) {
	var u users.User
	if err := c.getJSON(ctx, fmt.Sprintf("/users/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, name string) (*users.User, error) {
	var u users.User
	if err := c.postJSON(ctx, "/users", map[string]string{"name": name}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddCard puts a card into the user's binder. Adding a card the binder
// already holds increments its quantity server-side.
func (c *Client) AddCard(ctx context.Context, userID int, card users.CollectedCard) (*users.User, error) {
	var u users.User
	if err := c.postJSON(ctx, fmt.Sprintf("/users/%d/cards", userID), card, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.Base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.send(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, strings.NewReader(string(b)))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("calling api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &APIError{Status: resp.StatusCode, Message: apiMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding api response: %w", err)
	}
	return nil
}

func apiMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return "request failed"
}
