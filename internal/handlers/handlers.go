package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// PickStore is the read side of the pick tracker
type PickStore interface {
	List(openOnly bool) []*models.Pick
	ForGame(gameID string) []*models.Pick
	Len() int
}

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// Handler serves the read API
type Handler struct {
	store  PickStore
	checks map[string]HealthCheck
	logger zerolog.Logger
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewHandler creates a new handler with dependencies
func NewHandler(store PickStore, checks map[string]HealthCheck, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		checks: checks,
		logger: logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck reports whether every dependency answers
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.respondError(w, http.StatusServiceUnavailable, name+" unhealthy", err)
			return
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "pick-engine",
		"tracked":   h.store.Len(),
	})
}

// GetPicks lists tracked picks, newest first
// Query params: open (default true), sport, market, tier, limit
func (h *Handler) GetPicks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	openOnly := true
	if v := q.Get("open"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "open must be a boolean", nil)
			return
		}
		openOnly = parsed
	}

	market := models.Market(strings.ToUpper(q.Get("market")))
	tier := models.Tier(strings.ToUpper(q.Get("tier")))
	sport := q.Get("sport")

	limit, err := parseIntParam(r, "limit", 100)
	if err != nil || limit <= 0 {
		h.respondError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
		return
	}
	if limit > 500 {
		limit = 500
	}

	out := make([]*models.Pick, 0)
	for _, p := range h.store.List(openOnly) {
		if market != "" && p.Market != market {
			continue
		}
		if tier != "" && p.Tier != tier {
			continue
		}
		if sport != "" && p.SportKey != sport {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"picks": out,
		"count": len(out),
	})
}

// GetGamePicks returns every pick of one game, graded or not
func (h *Handler) GetGamePicks(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	found := h.store.ForGame(gameID)
	if len(found) == 0 {
		h.respondError(w, http.StatusNotFound, "no picks for game "+gameID, nil)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": gameID,
		"picks":   found,
		"count":   len(found),
	})
}

func parseIntParam(r *http.Request, param string, defaultValue int) (int, error) {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("error encoding response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Warn().Err(err).Msg(message)
	}

	h.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
