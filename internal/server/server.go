package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tanepro-b2b/internal/config"
	"tanepro-b2b/internal/database"
	"tanepro-b2b/internal/datastore"
	"tanepro-b2b/internal/localstore"
	custommiddleware "tanepro-b2b/internal/middleware"
	"tanepro-b2b/internal/service"
	"tanepro-b2b/internal/session"
	"tanepro-b2b/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators built at startup
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    *datastore.Store
	Remote   session.RemoteAuth
	Profiles *session.ProfileStore
	Local    localstore.Storage
	// Redis backs the rate limiter; nil disables it
	Redis *redis.Client
	// DB is nil in local auth mode
	DB database.Service
}

type Server struct {
	*http.Server
	deps   Deps
	logger *zap.Logger
}

// NewRouter builds the HTTP API
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	httpLogger := logger.Named("http")

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(httpLogger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(httpLogger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Security.AllowedOrigins, !cfg.IsProduction()))

	router.Get("/health", healthHandler(deps))

	limit := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		limit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "tanepro_ratelimit",
		}, httpLogger)
	}

	router.Group(func(r chi.Router) {
		if !cfg.Security.CookieSecure {
			r.Use(plaintextHTTP)
		}
		r.Use(csrf.Protect(cfg.Security.CSRFKey,
			csrf.Secure(cfg.Security.CookieSecure),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.TrustedOrigins(trustedHosts(cfg.Security.AllowedOrigins)),
			csrf.ErrorHandler(http.HandlerFunc(csrfFailure(httpLogger))),
		))
		r.Use(custommiddleware.SessionMiddleware(custommiddleware.SessionConfig{
			Remote:   deps.Remote,
			Profiles: deps.Profiles,
			Mirror:   deps.Store,
			Store:    custommiddleware.NewCookieStore(cfg.Security.SessionKey, cfg.Security.CookieSecure),
		}, logger.Named("session")))

		r.Get("/api/csrf", csrfToken)

		transport.NewAuthHandler(httpLogger).RegisterRoutes(r, limit)
		transport.NewCatalogHandler(deps.Store, httpLogger).RegisterRoutes(r)
		transport.NewPartyHandler(deps.Store, httpLogger).RegisterRoutes(r)
		transport.NewOrderHandler(deps.Store, httpLogger).RegisterRoutes(r)
		transport.NewOverviewHandler(service.NewOverviewService(deps.Store, nil), httpLogger).RegisterRoutes(r)
	})

	return router
}

func NewServer(deps Deps) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", deps.Config.Server.Port),
			Handler:      NewRouter(deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		deps:   deps,
		logger: deps.Logger,
	}
}

// Close releases the database pool, the redis client and local storage
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if s.deps.Local != nil {
		if err := s.deps.Local.Close(); err != nil {
			s.logger.Error("Failed to close local storage", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}

// plaintextHTTP marks requests served without TLS so the CSRF origin check
// does not demand https
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

// trustedHosts turns CORS origins into the host names the CSRF check expects
func trustedHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

func csrfToken(w http.ResponseWriter, r *http.Request) {
	token := csrf.Token(r)
	w.Header().Set("X-CSRF-Token", token)
	custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func csrfFailure(logger *zap.Logger) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("CSRF check failed",
			zap.String("path", r.URL.Path),
			zap.NamedError("reason", csrf.FailureReason(r)),
		)
		custommiddleware.RespondWithError(w, http.StatusForbidden, "invalid CSRF token")
	}
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok"}

		if deps.DB != nil {
			db := deps.DB.Health(r.Context())
			body["database"] = db
			if db["status"] != "up" {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		if deps.Redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				body["redis"] = "down"
			} else {
				body["redis"] = "up"
			}
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}
