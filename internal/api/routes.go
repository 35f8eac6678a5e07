// Package api serves a read-only JSON view of the content registry.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"arsenal-loader/internal/content"
)

const (
	defaultRegistrationLimit = 50
	maxRegistrationLimit     = 1000
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Item is the JSON shape of a registered item
type Item struct {
	ID       string                 `json:"id"`
	Category string                 `json:"category"`
	Parent   string                 `json:"parent,omitempty"`
	Name     string                 `json:"name,omitempty"`
	Source   string                 `json:"source,omitempty"`
	Props    map[string]interface{} `json:"props"`
}

func itemOf(it content.Item) Item {
	return Item{ID: it.ID, Category: it.Category, Parent: it.ParentID, Name: it.Name, Source: it.Source, Props: it.Props}
}

type handlers struct {
	db *content.DB
}

// NewRouter builds the API handler. Every route is GET-only. Logging,
// security headers and rate limiting wrap the whole router, so 404 and 405
// replies pass through them too.
func NewRouter(db *content.DB, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	h := &handlers{db: db}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "no such route", http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "read-only API", http.StatusMethodNotAllowed)
	})

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", h.health).Methods(http.MethodGet, http.MethodHead)
	v1.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	v1.HandleFunc("/items", h.items).Methods(http.MethodGet)
	v1.HandleFunc("/items/{id}", h.item).Methods(http.MethodGet)
	v1.HandleFunc("/items/{id}/slots/{slot}", h.slot).Methods(http.MethodGet)
	v1.HandleFunc("/recipes", h.recipes).Methods(http.MethodGet)
	v1.HandleFunc("/registrations", h.registrations).Methods(http.MethodGet)

	limiter := NewRateLimiter(rate.Limit(50), 100, 1000)
	return loggingMiddleware(logger)(securityHeadersMiddleware(limiter.Middleware(router)))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetContentStats()
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}

func (h *handlers) items(w http.ResponseWriter, r *http.Request) {
	var (
		items []content.Item
		err   error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		items, err = h.db.ItemsByCategory(category)
	} else {
		items, err = h.db.AllItems()
	}
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, itemOf(it))
	}
	respondJSON(w, out, http.StatusOK)
}

func (h *handlers) item(w http.ResponseWriter, r *http.Request) {
	it, err := h.db.GetItem(mux.Vars(r)["id"])
	if err != nil {
		respondLookupError(w, err)
		return
	}
	respondJSON(w, itemOf(it), http.StatusOK)
}

func (h *handlers) slot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := h.db.GetItem(vars["id"]); err != nil {
		respondLookupError(w, err)
		return
	}

	ids, err := h.db.SlotFilter(vars["id"], vars["slot"])
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, map[string]interface{}{"item": vars["id"], "slot": vars["slot"], "allowed": ids}, http.StatusOK)
}

func (h *handlers) recipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.db.Recipes()
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if recipes == nil {
		recipes = []content.Recipe{}
	}
	respondJSON(w, recipes, http.StatusOK)
}

func (h *handlers) registrations(w http.ResponseWriter, r *http.Request) {
	var (
		records []content.RegistrationRecord
		err     error
	)
	if runID := r.URL.Query().Get("run"); runID != "" {
		records, err = h.db.GetRegistrationsByRun(runID)
	} else {
		limit := defaultRegistrationLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 || limit > maxRegistrationLimit {
				respondError(w, "limit must be between 1 and 1000", http.StatusBadRequest)
				return
			}
		}
		records, err = h.db.GetRecentRegistrations(limit)
	}
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []content.RegistrationRecord{}
	}
	respondJSON(w, records, http.StatusOK)
}

func respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, content.ErrNotFound) {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}
	respondError(w, err.Error(), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Message: message,
	}, status)
}
