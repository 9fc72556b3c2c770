package app

import (
	"context"
	"fmt"

	"github.com/upb/keycloak-gateway/config"
	"github.com/upb/keycloak-gateway/internal/observability"
	"github.com/upb/keycloak-gateway/keycloak"
	"github.com/upb/keycloak-gateway/middleware"
	"github.com/upb/keycloak-gateway/repositories"
	"github.com/upb/keycloak-gateway/repositories/postgres"
	"github.com/upb/keycloak-gateway/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB // Nil when account binding is disabled
	Logger  *zap.Logger
	Metrics *observability.Metrics // Nil when metrics are disabled

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Accounts repositories.AccountRepository

	// Auth
	Clients        *keycloak.ClientRegistry
	Introspector   *keycloak.Client
	Authenticator  *services.TokenAuthenticator
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
// The database is only opened when account binding is enabled.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	var db *postgres.DB
	if cfg.AccountsEnabled {
		var err error
		db, err = postgres.NewDB(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	deps, err := NewDependenciesWithDB(ctx, cfg, db, logger)
	if err != nil && db != nil {
		_ = db.Close()
	}
	return deps, err
}

// NewDependenciesWithDB wires dependencies around an already opened pool.
// db may be nil, in which case identities carry no local account.
func NewDependenciesWithDB(ctx context.Context, cfg *config.Config, db *postgres.DB, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		DB:     db,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	if db != nil {
		if err := deps.initRepositories(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize repositories: %w", err)
		}
	}

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.Bool("accounts_enabled", deps.Accounts != nil),
		zap.Bool("metrics_enabled", deps.Metrics != nil))
	return deps, nil
}

// initRepositories bootstraps the schema and creates the repositories
func (d *Dependencies) initRepositories(ctx context.Context) error {
	d.RepoFactory = postgres.NewRepositoryFactoryFromDB(d.DB, d.Logger)

	if err := d.RepoFactory.InitSchema(ctx); err != nil {
		return err
	}

	repos := d.RepoFactory.NewRepositories()
	d.Accounts = repos.Accounts

	d.Logger.Info("repositories initialized")
	return nil
}

// initAuth resolves the Keycloak client registration and builds the authenticator
func (d *Dependencies) initAuth(cfg *config.Config) error {
	d.Clients = keycloak.NewClientRegistry()
	d.Clients.Register(keycloak.DefaultClientName, cfg.Keycloak.ProviderConfig())

	provider, err := d.Clients.Client(keycloak.DefaultClientName)
	if err != nil {
		return err
	}
	if !provider.IsKeycloak() {
		// Not fatal: every authentication reports the misconfiguration
		d.Logger.Warn("oauth2 client is not a keycloak provider",
			zap.String("client", keycloak.DefaultClientName),
			zap.String("type", provider.Type))
	}

	clientConfig := cfg.Keycloak.ClientConfig()
	clientConfig.Provider = provider

	var opts []keycloak.Option
	if d.Metrics != nil {
		opts = append(opts, keycloak.WithObserver(d.Metrics))
	}
	d.Introspector = keycloak.NewClient(clientConfig, d.Logger, opts...)

	var lookup repositories.AccountLookup
	if d.Accounts != nil {
		lookup = d.Accounts
	}
	d.Authenticator = services.NewTokenAuthenticator(d.Introspector, lookup, d.Logger)

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Authenticator, d.Logger).WithRealm(cfg.Keycloak.Realm)
	if d.Metrics != nil {
		d.AuthMiddleware.WithObserver(d.Metrics)
	}

	d.Logger.Info("keycloak authenticator initialized",
		zap.String("client_id", provider.ClientID),
		zap.String("introspection_url", provider.TokenIntrospectionURL()),
		zap.Bool("ssl_verification", cfg.Keycloak.SSLVerification))
	return nil
}

// CheckIdentityProvider reports whether introspection can be attempted.
// It does not contact Keycloak.
func (d *Dependencies) CheckIdentityProvider(ctx context.Context) error {
	provider := d.Introspector.Provider()
	if !provider.IsKeycloak() {
		return fmt.Errorf("%w: provider type %q", services.ErrConfiguration, provider.Type)
	}
	if provider.ClientID == "" {
		return fmt.Errorf("%w: missing client id", services.ErrConfiguration)
	}
	if provider.TokenIntrospectionURL() == "" {
		return fmt.Errorf("%w: %v", services.ErrConfiguration, keycloak.ErrMissingIntrospectionURL)
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
		d.DB = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
