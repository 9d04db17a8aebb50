package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jatinkaushik/devprep/internal/auth"
	"github.com/jatinkaushik/devprep/internal/config"
	"github.com/jatinkaushik/devprep/internal/contribution"
	"github.com/jatinkaushik/devprep/internal/discovery"
)

// NewHTTPServer wires all routes for the API service. The auth middleware
// wraps the whole mux so any route can resolve the optional viewer; routes
// that demand authentication additionally go through auth.RequireAuth.
func NewHTTPServer(
	cfg *config.App,
	logger zerolog.Logger,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	authSvc *auth.Service,
	authHandlers *auth.HTTPHandlers,
	discoveryHandler *discovery.HTTPHandler,
	contribHandlers *contribution.HTTPHandlers,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pool.Ping(r.Context()); err != nil {
			logger.Error().Err(err).Msg("health check db ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	// Auth endpoints
	mux.HandleFunc("POST /v1/auth/register", authHandlers.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandlers.Login)
	mux.HandleFunc("POST /v1/auth/refresh", authHandlers.RefreshToken)
	mux.HandleFunc("GET /v1/oauth/{provider}/start", authHandlers.OAuthStart)
	mux.HandleFunc("GET /v1/oauth/{provider}/callback", authHandlers.OAuthCallback)
	mux.Handle("GET /v1/users/me", auth.RequireAuth(http.HandlerFunc(authHandlers.GetMe)))

	// Question browsing; anonymous and authenticated viewers share the route.
	mux.HandleFunc("GET /v1/questions", discoveryHandler.HandleList)
	mux.HandleFunc("GET /v1/meta/topics", discoveryHandler.HandleTopics)
	mux.HandleFunc("GET /v1/meta/time-periods", discoveryHandler.HandleTimePeriods)
	mux.HandleFunc("GET /v1/meta/difficulties", discoveryHandler.HandleDifficulties)

	// User contributions
	requireAuth := func(h http.HandlerFunc) http.Handler { return auth.RequireAuth(h) }
	mux.Handle("POST /v1/user-questions", requireAuth(contribHandlers.CreateQuestion))
	mux.Handle("GET /v1/user-questions", requireAuth(contribHandlers.ListOwnQuestions))
	mux.HandleFunc("GET /v1/user-questions/{id}", contribHandlers.GetQuestion)
	mux.Handle("PUT /v1/user-questions/{id}", requireAuth(contribHandlers.UpdateQuestion))
	mux.Handle("DELETE /v1/user-questions/{id}", requireAuth(contribHandlers.DeleteQuestion))
	mux.Handle("POST /v1/user-questions/{id}/companies", requireAuth(contribHandlers.AddAssociation))
	mux.Handle("POST /v1/user-questions/{id}/approval-requests", requireAuth(contribHandlers.RequestApproval))
	mux.Handle("POST /v1/favorites", requireAuth(contribHandlers.AddFavorite))
	mux.Handle("GET /v1/favorites", requireAuth(contribHandlers.ListFavorites))
	mux.Handle("DELETE /v1/favorites/{id}", requireAuth(contribHandlers.RemoveFavorite))

	handler := auth.Middleware(authSvc, logger)(mux)
	handler = corsMiddleware(cfg.CORS)(handler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

// corsMiddleware applies the configured CORS policy and answers preflight
// requests directly.
func corsMiddleware(cfg config.CORS) func(http.Handler) http.Handler {
	allowedMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(cfg.AllowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
