package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"reelops/globals"
	"reelops/middleware"
	"reelops/ratelim"
)

func RoutesWrapper(router *httprouter.Router, d *Deps, rateLimiter *ratelim.RateLimiter) {
	AddHealthRoutes(router)
	AddAuthRoutes(router, d, rateLimiter)
	AddOperationRoutes(router, d)
	AddLiveRoutes(router, d)
}

// NewRouter builds the full handler chain: logging → security headers → CORS → router.
func NewRouter(d *Deps, rateLimiter *ratelim.RateLimiter, allowedOrigins []string) http.Handler {
	router := httprouter.New()
	RoutesWrapper(router, d, rateLimiter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", globals.SessionHeaderName},
		ExposedHeaders:   []string{globals.SessionHeaderName, "Content-Disposition"},
		AllowCredentials: true,
	}).Handler(router)

	return middleware.Logging(middleware.SecurityHeaders(corsHandler))
}
