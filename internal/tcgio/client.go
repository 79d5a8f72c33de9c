package tcgio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.pokemontcg.io/v2"

const maxAttempts = 3

var (
	retryBaseDelay = 2 * time.Second
	rateLimitDelay = 5 * time.Second
)

// StatusError carries a non-2xx upstream status so callers can forward it.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Message)
}

// Client talks to the Pokémon TCG API. An empty API key means
// unauthenticated (rate-limited) calls; that is not an error.
//
// All GETs retry transient failures (429/503/504/network) with a bounded
// backoff. Both the live search path and the ingestion commands go through
// the same policy.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter throttles outgoing requests. Used by the ingestion commands
// so paging through the full catalogue does not trip upstream rate limits.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func New(base, apiKey string, opts ...Option) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		apiKey: strings.TrimSpace(apiKey),
		http:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Card is the subset of the upstream card document the application uses.
type Card struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Number      string      `json:"number"`
	HP          string      `json:"hp"`
	Supertype   string      `json:"supertype"`
	Types       []string    `json:"types"`
	Rarity      string      `json:"rarity"`
	Artist      string      `json:"artist"`
	Abilities   []Ability   `json:"abilities"`
	Attacks     []Attack    `json:"attacks"`
	Weaknesses  []TypeValue `json:"weaknesses"`
	Resistances []TypeValue `json:"resistances"`
	Set         Set         `json:"set"`
	Images      Images      `json:"images"`
	TCGPlayer   *TCGPlayer  `json:"tcgplayer"`
}

type Ability struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type Attack struct {
	Name                string   `json:"name"`
	Cost                []string `json:"cost"`
	ConvertedEnergyCost int      `json:"convertedEnergyCost"`
	Damage              string   `json:"damage"`
	Text                string   `json:"text"`
}

type TypeValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Set struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Images struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

type TCGPlayer struct {
	UpdatedAt string                  `json:"updatedAt"`
	Prices    map[string]PriceFigures `json:"prices"`
}

type PriceFigures struct {
	Low    *float64 `json:"low"`
	Mid    *float64 `json:"mid"`
	High   *float64 `json:"high"`
	Market *float64 `json:"market"`
}

// Page is one page of the upstream card listing.
type Page struct {
	Data       []Card `json:"data"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Count      int    `json:"count"`
	TotalCount int    `json:"totalCount"`
}

// ListCards fetches one page of the full catalogue, for ingestion.
func (c *Client) ListCards(ctx context.Context, page, pageSize int) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	body, err := c.get(ctx, "/cards", q)
	if err != nil {
		return nil, err
	}

	var p Page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding cards page: %w", err)
	}
	return &p, nil
}

// SearchCards runs a free-text query and returns the upstream payload
// verbatim, so the API can pass it through to the storefront.
func (c *Client) SearchCards(ctx context.Context, query string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("q", query)
	return c.get(ctx, "/cards", q)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxAttempts {
			return nil, err
		}
		if err := sleep(ctx, retryDelay(err, attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Code: resp.StatusCode, Message: upstreamMessage(body)}
	}
	return body, nil
}

// upstreamMessage extracts {"error":{"message":...}} when present, falling
// back to the trimmed body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func retryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		// network-level failure
		return true
	}
	switch se.Code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryDelay(err error, attempt int) time.Duration {
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
		return rateLimitDelay
	}
	return retryBaseDelay * time.Duration(attempt)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
