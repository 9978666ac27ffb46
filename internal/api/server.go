package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/recommendation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP surface over store: recommendation routes,
// health probes and Prometheus metrics, wrapped in the middleware chain.
func NewRouter(store recommendation.Store, rateLimitRPS int) http.Handler {
	router := mux.NewRouter()

	NewRecommendationHandler(store).Register(router)
	NewHealthHandler(store).Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Runs after route matching so request metrics carry the route template
	router.Use(mux.MiddlewareFunc(LoggingMiddleware()))

	middlewares := ChainMiddleware(
		CORSMiddleware(),
		ErrorHandlingMiddleware(),
		RateLimitMiddleware(rateLimitRPS),
	)
	return middlewares(router)
}
