package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/recommendation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every read
type brokenStore struct{}

func (brokenStore) Publish(context.Context, *models.Snapshot) error { return errors.New("down") }
func (brokenStore) Latest(context.Context) (*models.Snapshot, error) {
	return nil, errors.New("down")
}
func (brokenStore) Ranking(context.Context, int) ([]models.RankEntry, error) {
	return nil, errors.New("down")
}

func publishedStore(t *testing.T) *recommendation.MemoryStore {
	t.Helper()
	store := recommendation.NewMemoryStore()
	updated := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Publish(context.Background(), &models.Snapshot{
		Version:       4,
		ScanID:        "scan-4",
		LastUpdated:   updated,
		LastPriceSync: updated.Add(30 * time.Second),
		Recommendations: []models.Candidate{
			{Market: "KRW-BTC", CurrentPrice: 100, AccTradePrice24h: 900, BuyPrice: 100, StopLoss: 99},
			{Market: "KRW-ETH", CurrentPrice: 10, AccTradePrice24h: 500, BuyPrice: 10, StopLoss: 9.9},
		},
	}))
	return store
}

func get(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))

	var body map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestRecommendationHandler_GetRecommendations(t *testing.T) {
	router := NewRouter(publishedStore(t), 0)

	for _, path := range []string{"/api/v1/recommendations", "/api/recommend"} {
		w, body := get(t, router, path)
		require.Equal(t, http.StatusOK, w.Code, path)

		assert.Equal(t, "success", body["status"])
		assert.Equal(t, 4.0, body["version"])
		assert.Equal(t, "scan-4", body["scan_id"])
		assert.Equal(t, "2024-03-01T09:00:00Z", body["last_updated"])
		assert.Equal(t, "2024-03-01T09:00:30Z", body["last_price_sync"])

		recs := body["recommendations"].([]interface{})
		require.Len(t, recs, 2)
		first := recs[0].(map[string]interface{})
		assert.Equal(t, "KRW-BTC", first["market"])
		assert.Equal(t, 99.0, first["sl"])
	}
}

func TestRecommendationHandler_NothingPublished(t *testing.T) {
	router := NewRouter(recommendation.NewMemoryStore(), 0)

	w, body := get(t, router, "/api/v1/recommendations")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "success", body["status"])
	assert.Equal(t, []interface{}{}, body["recommendations"])
	assert.Nil(t, body["last_updated"])
}

func TestRecommendationHandler_StoreFailure(t *testing.T) {
	router := NewRouter(brokenStore{}, 0)

	w, body := get(t, router, "/api/v1/recommendations")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Recommendations unavailable", body["error"])

	w, _ = get(t, router, "/api/v1/recommendations/ranking")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecommendationHandler_GetRanking(t *testing.T) {
	router := NewRouter(publishedStore(t), 0)

	w, body := get(t, router, "/api/v1/recommendations/ranking?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["count"])
	ranking := body["ranking"].([]interface{})
	assert.Equal(t, "KRW-BTC", ranking[0].(map[string]interface{})["market"])

	// Out of range limits fall back to the default
	_, body = get(t, router, "/api/v1/recommendations/ranking?limit=0")
	assert.Equal(t, 2.0, body["count"])

	_, body = get(t, NewRouter(recommendation.NewMemoryStore(), 0), "/api/v1/recommendations/ranking")
	assert.Equal(t, 0.0, body["count"])
}

func TestHealthHandler(t *testing.T) {
	router := NewRouter(recommendation.NewMemoryStore(), 0)

	w, body := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	w, body = get(t, router, "/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])

	// Empty store is still ready
	w, body = get(t, router, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])

	w, body = get(t, NewRouter(brokenStore{}, 0), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not ready", body["status"])
}

func TestRouter_Metrics(t *testing.T) {
	router := NewRouter(recommendation.NewMemoryStore(), 0)
	get(t, router, "/api/v1/recommendations")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `endpoint="/api/v1/recommendations"`)
}
