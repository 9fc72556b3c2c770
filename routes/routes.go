package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/keycloak-gateway/app"
	"github.com/upb/keycloak-gateway/handlers"
	"github.com/upb/keycloak-gateway/middleware"
	"go.uber.org/zap"
)

// adminRole guards the account administration endpoints
const adminRole = "admin"

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	var sqlDB *sql.DB
	if deps.DB != nil {
		sqlDB = deps.DB.DB
	}
	health := handlers.NewHealthHandler(sqlDB, deps.Logger).
		WithCheck("identity_provider", deps.CheckIdentityProvider)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)
	deps.Logger.Info("readiness checks registered",
		zap.Bool("database", sqlDB != nil),
		zap.Strings("checks", health.CheckNames()))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Current identity
		identity := handlers.NewIdentityHandler(deps.Authenticator, deps.Logger)
		r.Route("/me", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/", identity.HandleMe)
			r.Post("/refresh", identity.HandleRefresh)
		})

		// Account administration (require admin role, only with account binding)
		if deps.Accounts != nil {
			accounts := handlers.NewAccountHandler(deps.Accounts, deps.Logger)
			r.Route("/admin/accounts", func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireAuth)
				r.Use(deps.AuthMiddleware.RequireRole(adminRole))
				r.Post("/", accounts.HandleCreate)
				r.Get("/{email}", accounts.HandleGetByEmail)
				r.Get("/id/{id}", accounts.HandleGetByID)
				r.Delete("/{id}", accounts.HandleDelete)
			})
		}
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
