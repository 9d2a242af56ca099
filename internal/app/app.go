// Package app wires configuration, storage, services and both API surfaces
// into one http.Handler. Startup work goes through a bootstrap.Initializer so
// the same wiring serves a long-running server, which initializes before
// listening, and a serverless deployment, which initializes on the first
// request.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"libraryapi/internal/auth"
	"libraryapi/internal/book"
	"libraryapi/internal/borrow"
	"libraryapi/internal/gql"
	"libraryapi/internal/httpx"
	"libraryapi/internal/platform/bootstrap"
	"libraryapi/internal/platform/config"
	"libraryapi/internal/user"
)

const readyzTimeout = 500 * time.Millisecond

type App struct {
	cfg    *config.Config
	logger *slog.Logger
	boot   *bootstrap.Initializer
	limits *httpx.RateLimitMiddleware

	// Written by the initialization steps, read only once boot is Ready.
	store    *Store
	services gql.Services
	api      http.Handler
}

// New builds an App. Nothing is connected until EnsureInitialized runs. ctx
// bounds background work such as rate limiter cleanup.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) *App {
	a := &App{
		cfg:    cfg,
		logger: logger,
		limits: httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	a.boot = bootstrap.New(logger, cfg.InitTimeout,
		bootstrap.Step{Name: "storage", Run: a.initStorage},
		bootstrap.Step{Name: "graphql", Run: a.initAPI},
	)
	return a
}

func (a *App) initStorage(ctx context.Context) error {
	// A store opened by an attempt that failed in a later step is reused.
	store := a.store
	if store == nil {
		var err error
		if store, err = OpenStore(ctx, a.cfg.Store, a.logger); err != nil {
			return err
		}
	}
	users := user.NewService(store.Users)
	a.store = store
	a.services = gql.Services{
		Users:   users,
		Auth:    auth.NewService(a.cfg.JWTSecret, a.cfg.TokenTTL, users),
		Books:   book.NewService(store.Books),
		Borrows: borrow.NewService(store.Borrows),
	}
	return nil
}

func (a *App) initAPI(ctx context.Context) error {
	schema, err := gql.NewSchema(a.services, a.logger)
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}
	playground := a.cfg.Playground || a.cfg.IsDevelopment()
	a.api = newAPIRouter(a.cfg.JWTSecret, a.services, gql.NewHandler(schema, playground))
	return ctx.Err()
}

// EnsureInitialized connects storage and builds the API exactly once.
func (a *App) EnsureInitialized(ctx context.Context) error {
	return a.boot.EnsureInitialized(ctx)
}

// Initializer exposes the cold-start state, mainly for Reset after a failure.
func (a *App) Initializer() *bootstrap.Initializer {
	return a.boot
}

// Handler returns the root handler with the full middleware chain. In
// serverless mode /api requests trigger initialization; in server mode the
// caller must initialize before serving.
func (a *App) Handler() http.Handler {
	var api http.Handler = http.HandlerFunc(a.serveAPI)
	if a.cfg.Mode == config.ModeServerless {
		api = a.boot.Middleware(api)
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", a.healthz)
	root.HandleFunc("GET /readyz", a.readyz)
	root.Handle("/", api)

	return httpx.Chain(root,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(a.logger),
		httpx.RecoveryMiddleware(a.logger),
		httpx.SecurityHeadersMiddleware(a.cfg.EnableHSTS),
		httpx.CORSMiddleware(a.cfg.AllowedOrigins),
		httpx.RequestSizeLimitMiddleware(a.cfg.MaxBodyBytes),
		a.limits.Middleware,
	)
}

func (a *App) serveAPI(w http.ResponseWriter, r *http.Request) {
	if !a.boot.Ready() {
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Service is starting", nil)
		return
	}
	a.api.ServeHTTP(w, r)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *App) readyz(w http.ResponseWriter, r *http.Request) {
	if !a.boot.Ready() {
		http.Error(w, "not initialized: "+a.boot.State().String(), http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Close releases the store if initialization got that far.
func (a *App) Close(ctx context.Context) error {
	if a.boot.State() == bootstrap.Initializing {
		return errors.New("close during initialization")
	}
	if a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}
