package users

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jonanatree/cardbinder/internal/web"
	"golang.org/x/exp/slog"
)

// API is the HTTP API for users and their binders.
type API struct {
	store  Store
	logger *slog.Logger
}

func NewAPI(store Store, logger *slog.Logger) *API {
	return &API{
		store:  store,
		logger: logger,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", a.listUsers)
		r.Post("/", a.createUser)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", a.getUser)
			r.Patch("/", a.updateUser)
			r.Delete("/", a.deleteUser)
			r.Get("/cards", a.listCards)
			r.Post("/cards", a.addCard)
		})
	})
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, http.StatusOK, a.store.List())
}

type createUserRequest struct {
	Name string `json:"name"`
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		web.RespondIssues(w, []web.Issue{{Path: "name", Message: "Name is required"}})
		return
	}

	user := a.store.Create(name)
	web.RespondJSON(w, http.StatusCreated, user)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := a.store.Get(id)
	if err != nil {
		web.RespondError(w, http.StatusNotFound, "User not found")
		return
	}
	web.RespondJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Name *string `json:"name"`
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	// 404 before body validation, matching the observable contract.
	if _, err := a.store.Get(id); err != nil {
		web.RespondError(w, http.StatusNotFound, "User not found")
		return
	}

	var req updateUserRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == nil {
		web.RespondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	name := strings.TrimSpace(*req.Name)
	if name == "" {
		web.RespondIssues(w, []web.Issue{{Path: "name", Message: "Name must be a non-empty string"}})
		return
	}

	user, err := a.store.Update(id, name)
	if err != nil {
		web.RespondError(w, http.StatusNotFound, "User not found")
		return
	}
	web.RespondJSON(w, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if err := a.store.Delete(id); err != nil {
		web.RespondError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listCards(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	cards, err := a.store.ListCards(id)
	if err != nil {
		web.RespondError(w, http.StatusNotFound, "User not found")
		return
	}
	web.RespondJSON(w, http.StatusOK, cards)
}

type addCardRequest struct {
	CardID    string   `json:"cardId"`
	Name      string   `json:"name"`
	ImageURL  string   `json:"imageUrl"`
	SetName   string   `json:"setName"`
	Rarity    string   `json:"rarity"`
	Quantity  *int     `json:"quantity"`
	Condition string   `json:"condition"`
	Price     *float64 `json:"price"`
}

func (a *API) addCard(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req addCardRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var issues []web.Issue
	if strings.TrimSpace(req.CardID) == "" {
		issues = append(issues, web.Issue{Path: "cardId", Message: "cardId is required"})
	}
	quantity := 1
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			issues = append(issues, web.Issue{Path: "quantity", Message: "quantity must be at least 1"})
		} else {
			quantity = *req.Quantity
		}
	}
	condition := ConditionNM
	if req.Condition != "" {
		condition = Condition(req.Condition)
		if !ValidCondition(condition) {
			issues = append(issues, web.Issue{Path: "condition", Message: "condition must be one of NM, LP, MP, HP, DMG"})
		}
	}
	if req.Price != nil && *req.Price < 0 {
		issues = append(issues, web.Issue{Path: "price", Message: "price must be non-negative"})
	}
	if len(issues) > 0 {
		web.RespondIssues(w, issues)
		return
	}

	user, err := a.store.AddCard(id, CollectedCard{
		CardID:    strings.TrimSpace(req.CardID),
		Name:      req.Name,
		ImageURL:  req.ImageURL,
		SetName:   req.SetName,
		Rarity:    req.Rarity,
		Quantity:  quantity,
		Condition: condition,
		Price:     req.Price,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			web.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		a.logger.Error("adding card to binder", "user_id", id, "err", err)
		web.RespondError(w, http.StatusInternalServerError, "Failed to add card")
		return
	}

	web.RespondJSON(w, http.StatusCreated, user)
}

// userID parses the path parameter. A non-numeric id can never match a
// user, so it reports 404 rather than 400.
func userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		web.RespondError(w, http.StatusNotFound, "User not found")
		return 0, false
	}
	return id, true
}
