package binderclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonanatree/cardbinder/binderclient"
	"github.com/jonanatree/cardbinder/catalogue/models"
	"github.com/jonanatree/cardbinder/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCardsBuildsQueryString(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(models.CardsPage{Page: 2, Limit: 20, Total: 42, Data: []models.Card{}})
	}))
	defer srv.Close()

	c := binderclient.New(srv.URL, nil)
	min := 1.0
	page, err := c.ListCards(context.Background(), binderclient.Query{
		Page:      2,
		Limit:     20,
		Search:    "char",
		Rarity:    "Rare",
		MinPrice:  &min,
		PriceSort: "low-to-high",
	})

	require.NoError(t, err)
	assert.Equal(t, 42, page.Total)
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"20"}, gotQuery["limit"])
	assert.Equal(t, []string{"char"}, gotQuery["search"])
	assert.Equal(t, []string{"Rare"}, gotQuery["rarity"])
	assert.Equal(t, []string{"1"}, gotQuery["minPrice"])
	assert.Equal(t, []string{"low-to-high"}, gotQuery["priceSort"])
	assert.NotContains(t, gotQuery, "set", "zero-value filters must be omitted")
	assert.NotContains(t, gotQuery, "maxPrice")
}

func TestGetCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards/base1-4", r.URL.Path)
		json.NewEncoder(w).Encode(models.CardDetail{
			Card: models.Card{ID: "base1-4", Name: "Charizard"},
		})
	}))
	defer srv.Close()

	c := binderclient.New(srv.URL, nil)
	detail, err := c.GetCard(context.Background(), "base1-4")

	require.NoError(t, err)
	assert.Equal(t, "Charizard", detail.Name)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Card not found"})
	}))
	defer srv.Close()

	c := binderclient.New(srv.URL, nil)
	_, err := c.GetCard(context.Background(), "nope")

	var apiErr *binderclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Card not found", apiErr.Message)
}

func TestSearchPassthrough(t *testing.T) {
	payload := `{"data":[{"id":"xy1-1"}],"totalCount":1}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards/search", r.URL.Path)
		assert.Equal(t, "name:eevee", r.URL.Query().Get("q"))
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := binderclient.New(srv.URL, nil)
	raw, err := c.Search(context.Background(), "name:eevee")

	require.NoError(t, err)
	assert.JSONEq(t, payload, string(raw))
}

func TestAddCardPostsBinderEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/1/cards", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "base1-4", body["cardId"])
		assert.Equal(t, float64(2), body["quantity"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "name": "Alice"})
	}))
	defer srv.Close()

	c := binderclient.New(srv.URL, nil)
	u, err := c.AddCard(context.Background(), 1, users.CollectedCard{
		CardID:    "base1-4",
		Quantity:  2,
		Condition: users.ConditionNM,
	})

	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
}
