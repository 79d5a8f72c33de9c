package users_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jonanatree/cardbinder/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func newUsersServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard))
	api := users.NewAPI(users.NewMemoryStore(), logger)

	router := chi.NewRouter()
	api.AppendRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestListUsers(t *testing.T) {
	srv := newUsersServer(t)

	var list []users.User
	resp := doJSON(t, http.MethodGet, srv.URL+"/users", nil, &list)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)
}

func TestCreateUser(t *testing.T) {
	srv := newUsersServer(t)

	var created users.User
	resp := doJSON(t, http.MethodPost, srv.URL+"/users", map[string]string{"name": "  Carol  "}, &created)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 3, created.ID)
	assert.Equal(t, "Carol", created.Name, "name must be trimmed")
}

func TestCreateUserValidation(t *testing.T) {
	srv := newUsersServer(t)

	var body struct {
		Error  string `json:"error"`
		Issues []struct {
			Path    string `json:"path"`
			Message string `json:"message"`
		} `json:"issues"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/users", map[string]string{"name": "   "}, &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Len(t, body.Issues, 1)
	assert.Equal(t, "name", body.Issues[0].Path)
}

func TestGetUser(t *testing.T) {
	srv := newUsersServer(t)

	var u users.User
	resp := doJSON(t, http.MethodGet, srv.URL+"/users/1", nil, &u)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice", u.Name)

	var errBody map[string]any
	resp = doJSON(t, http.MethodGet, srv.URL+"/users/999", nil, &errBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", errBody["error"])

	resp = doJSON(t, http.MethodGet, srv.URL+"/users/abc", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPatchUser(t *testing.T) {
	srv := newUsersServer(t)

	var u users.User
	resp := doJSON(t, http.MethodPatch, srv.URL+"/users/1", map[string]string{"name": "Alicia"}, &u)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alicia", u.Name)

	var errBody map[string]any
	resp = doJSON(t, http.MethodPatch, srv.URL+"/users/1", map[string]string{}, &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Nothing to update", errBody["error"])

	resp = doJSON(t, http.MethodPatch, srv.URL+"/users/999", map[string]string{"name": "X"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteUser(t *testing.T) {
	srv := newUsersServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/users/2", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body, "delete must return an empty body")

	var list []users.User
	doJSON(t, http.MethodGet, srv.URL+"/users", nil, &list)
	assert.Len(t, list, 1)
}

func TestDeleteUnknownUser(t *testing.T) {
	srv := newUsersServer(t)

	var errBody map[string]any
	resp := doJSON(t, http.MethodDelete, srv.URL+"/users/999", nil, &errBody)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", errBody["error"])

	var list []users.User
	doJSON(t, http.MethodGet, srv.URL+"/users", nil, &list)
	assert.Len(t, list, 2, "failed delete must leave the users list unchanged")
}

func TestAddCardTwiceMergesQuantity(t *testing.T) {
	srv := newUsersServer(t)

	card := map[string]any{"cardId": "base1-4", "name": "Charizard", "quantity": 2}

	resp := doJSON(t, http.MethodPost, srv.URL+"/users/1/cards", card, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var u users.User
	resp = doJSON(t, http.MethodPost, srv.URL+"/users/1/cards", card, &u)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, u.Cards, 1)
	assert.Equal(t, 4, u.Cards[0].Quantity)
}

func TestAddCardDefaults(t *testing.T) {
	srv := newUsersServer(t)

	var u users.User
	resp := doJSON(t, http.MethodPost, srv.URL+"/users/1/cards", map[string]any{"cardId": "base1-58"}, &u)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, u.Cards, 1)
	assert.Equal(t, 1, u.Cards[0].Quantity)
	assert.Equal(t, users.ConditionNM, u.Cards[0].Condition)
}

func TestAddCardValidation(t *testing.T) {
	srv := newUsersServer(t)

	cases := []map[string]any{
		{},                                   // missing cardId
		{"cardId": "x", "quantity": 0},       // quantity below 1
		{"cardId": "x", "condition": "MINT"}, // unknown condition
		{"cardId": "x", "price": -1.0},       // negative price
	}
	for _, body := range cases {
		var errBody struct {
			Issues []struct {
				Path string `json:"path"`
			} `json:"issues"`
		}
		resp := doJSON(t, http.MethodPost, srv.URL+"/users/1/cards", body, &errBody)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NotEmpty(t, errBody.Issues)
	}
}

func TestAddCardUnknownUser(t *testing.T) {
	srv := newUsersServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/users/999/cards", map[string]any{"cardId": "base1-4"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListUserCards(t *testing.T) {
	srv := newUsersServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/users/1/cards", map[string]any{"cardId": "base1-4", "condition": "LP"}, nil)

	var cards []users.CollectedCard
	resp := doJSON(t, http.MethodGet, srv.URL+"/users/1/cards", nil, &cards)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, cards, 1)
	assert.Equal(t, users.ConditionLP, cards[0].Condition)
}
