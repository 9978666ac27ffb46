package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/recommendation"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// RecommendationsResponse is the body of the recommendations endpoint
type RecommendationsResponse struct {
	Status          string             `json:"status"`
	Version         int64              `json:"version"`
	ScanID          string             `json:"scan_id,omitempty"`
	LastUpdated     *time.Time         `json:"last_updated"`
	LastPriceSync   *time.Time         `json:"last_price_sync"`
	Recommendations []models.Candidate `json:"recommendations"`
}

// RecommendationHandler serves the published recommendation snapshot
type RecommendationHandler struct {
	store recommendation.Store
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(store recommendation.Store) *RecommendationHandler {
	return &RecommendationHandler{store: store}
}

// Register mounts the recommendation routes on router
func (h *RecommendationHandler) Register(router *mux.Router) {
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/recommendations", h.GetRecommendations).Methods("GET")
	v1.HandleFunc("/recommendations/ranking", h.GetRanking).Methods("GET")

	// Legacy dashboard path
	router.HandleFunc("/api/recommend", h.GetRecommendations).Methods("GET")
}

// GetRecommendations handles GET /api/v1/recommendations
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Latest(r.Context())
	if errors.Is(err, models.ErrSnapshotNotFound) {
		respondWithJSON(w, http.StatusOK, RecommendationsResponse{
			Status:          "success",
			Recommendations: []models.Candidate{},
		})
		return
	}
	if err != nil {
		logger.WithContext(r.Context()).Error("Failed to read recommendations", logger.ErrorField(err))
		logger.ErrorsTotal.WithLabelValues("api", "store_read").Inc()
		respondWithError(w, http.StatusServiceUnavailable, "Recommendations unavailable")
		return
	}

	recs := snap.Recommendations
	if recs == nil {
		recs = []models.Candidate{}
	}
	respondWithJSON(w, http.StatusOK, RecommendationsResponse{
		Status:          "success",
		Version:         snap.Version,
		ScanID:          snap.ScanID,
		LastUpdated:     &snap.LastUpdated,
		LastPriceSync:   &snap.LastPriceSync,
		Recommendations: recs,
	})
}

// GetRanking handles GET /api/v1/recommendations/ranking?limit=n
func (h *RecommendationHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 5, 1, 100)

	ranking, err := h.store.Ranking(r.Context(), limit)
	if errors.Is(err, models.ErrSnapshotNotFound) {
		ranking = []models.RankEntry{}
	} else if err != nil {
		logger.WithContext(r.Context()).Error("Failed to read ranking", logger.ErrorField(err))
		logger.ErrorsTotal.WithLabelValues("api", "store_read").Inc()
		respondWithError(w, http.StatusServiceUnavailable, "Ranking unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"ranking": ranking,
		"count":   len(ranking),
	})
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	store recommendation.Store
}

// NewHealthHandler creates a health handler; readiness checks that store is readable
func NewHealthHandler(store recommendation.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Register mounts /health, /ready and /live on router
func (h *HealthHandler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/ready", h.Ready).Methods("GET")
	router.HandleFunc("/live", h.Live).Methods("GET")
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	_, err := h.store.Latest(r.Context())
	if err != nil && !errors.Is(err, models.ErrSnapshotNotFound) {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Live handles GET /live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func parseIntQuery(r *http.Request, key string, defaultValue, min, max int) int {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < min || value > max {
		return defaultValue
	}
	return value
}
