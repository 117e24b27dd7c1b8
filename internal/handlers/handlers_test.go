package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// MockStore implements handlers.PickStore for testing
type MockStore struct {
	picks []*models.Pick
}

func (m *MockStore) List(openOnly bool) []*models.Pick {
	var out []*models.Pick
	for _, p := range m.picks {
		if openOnly && p.Graded {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *MockStore) ForGame(gameID string) []*models.Pick {
	var out []*models.Pick
	for _, p := range m.picks {
		if p.GameID == gameID {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockStore) Len() int { return len(m.picks) }

type picksResponse struct {
	Picks []models.Pick `json:"picks"`
	Count int           `json:"count"`
}

func newTestServer(checks map[string]handlers.HealthCheck) http.Handler {
	created := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	store := &MockStore{picks: []*models.Pick{
		{ID: "p1", GameID: "nba-bos-lal", SportKey: "basketball_nba", Market: models.MarketSpread, Side: models.SideAway, Tier: models.TierTwo, Confidence: 81, CreatedAt: created},
		{ID: "p2", GameID: "nba-bos-lal", SportKey: "basketball_nba", Market: models.MarketTotal, Side: models.SideUnder, Tier: models.TierOne, Confidence: 90, CreatedAt: created},
		{ID: "p3", GameID: "nba-mia-nyk", SportKey: "basketball_nba", Market: models.MarketSpread, Side: models.SideHome, Tier: models.TierLean, Confidence: 64, CreatedAt: created, Graded: true},
	}}

	h := handlers.NewHandler(store, checks, zerolog.Nop())
	return handlers.NewRouter(h, []string{"http://localhost:3000"})
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(map[string]handlers.HealthCheck{
		"redis": func(ctx context.Context) error { return nil },
	})

	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["tracked"])
}

func TestHealthCheckUnhealthy(t *testing.T) {
	srv := newTestServer(map[string]handlers.HealthCheck{
		"holocron": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "holocron unhealthy", body.Message)
}

func TestGetPicks(t *testing.T) {
	srv := newTestServer(nil)

	tests := []struct {
		name string
		path string
		ids  []string
	}{
		{"open by default", "/api/v1/picks", []string{"p1", "p2"}},
		{"include graded", "/api/v1/picks?open=false", []string{"p1", "p2", "p3"}},
		{"market filter", "/api/v1/picks?market=total", []string{"p2"}},
		{"tier filter", "/api/v1/picks?tier=TIER_2", []string{"p1"}},
		{"limit", "/api/v1/picks?limit=1", []string{"p1"}},
		{"limit above cap", "/api/v1/picks?limit=9000", []string{"p1", "p2"}},
		{"unknown sport", "/api/v1/picks?sport=icehockey_nhl", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body picksResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			ids := []string{}
			for _, p := range body.Picks {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, len(tt.ids), body.Count)
		})
	}
}

func TestGetPicksBadParams(t *testing.T) {
	srv := newTestServer(nil)

	for _, path := range []string{
		"/api/v1/picks?open=maybe",
		"/api/v1/picks?limit=0",
		"/api/v1/picks?limit=-3",
		"/api/v1/picks?limit=ten",
	} {
		rec := get(t, srv, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestGetGamePicks(t *testing.T) {
	srv := newTestServer(nil)

	rec := get(t, srv, "/api/v1/picks/nba-bos-lal")
	require.Equal(t, http.StatusOK, rec.Code)

	var body picksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	rec = get(t, srv, "/api/v1/picks/nba-unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
