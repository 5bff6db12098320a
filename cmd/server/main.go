package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/Simplici0/windowcalc/internal/calculator"
	"github.com/Simplici0/windowcalc/internal/catalog"
	"github.com/Simplici0/windowcalc/internal/config"
	"github.com/Simplici0/windowcalc/internal/db"
	"github.com/Simplici0/windowcalc/internal/history"
	"github.com/Simplici0/windowcalc/internal/kv"
	"github.com/Simplici0/windowcalc/internal/logger"
	"github.com/Simplici0/windowcalc/internal/metrics"
	"github.com/Simplici0/windowcalc/internal/migrations"
	"github.com/Simplici0/windowcalc/internal/seed"
)

const devSessionSecret = "windowcalc-dev-secret"

type server struct {
	catalog  catalog.Catalog
	sessions *sessionManager
	signer   *sessionSigner
	log      *logger.Logger
	metrics  *metrics.Calculator
	gatherer prometheus.Gatherer
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "windowcalc: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		ServiceName: "windowcalc",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { err = multierr.Append(err, database.Close()) }()

	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
		stats, err := seed.Run(database, catalog.Default())
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Info(log.WithField(ctx, "inserts", stats.Inserts), "catalog seeded")
	}

	cat, err := catalog.Load(database)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	store, closeStore, err := openKV(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeStore()) }()

	reg := prometheus.NewRegistry()
	m := metrics.NewCalculator(reg)

	secret := cfg.SessionSecret
	if secret == "" {
		log.Warn(ctx, "WINDOWCALC_SESSION_SECRET is not set, using the dev secret", nil)
		secret = devSessionSecret
	}

	sessions := newSessionManager(cfg.SessionIdle, func(ctx context.Context, sessionID string) (*calculator.Store, error) {
		return calculator.NewStore(ctx, calculator.Options{
			Catalog:     cat,
			History:     history.New(store, sessionKey(cfg.HistoryKey, sessionID), log, m),
			ConfigStore: store,
			ConfigKey:   sessionKey(cfg.ConfigKey, sessionID),
			Logger:      log,
			Metrics:     m,
		})
	})
	go sessions.sweep(ctx, cfg.SessionIdle/2)

	srv := &server{
		catalog:  cat,
		sessions: sessions,
		signer:   newSessionSigner(secret),
		log:      log,
		metrics:  m,
		gatherer: reg,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(log.WithField(ctx, "addr", httpServer.Addr), "listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info(shutdownCtx, "shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

// openKV picks the durable store for history and live configuration records.
func openKV(ctx context.Context, cfg config.Config, database *sql.DB) (kv.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return kv.NewMemory(), noop, nil
	case config.BackendRedis:
		r, err := kv.NewRedis(ctx, kv.RedisOptions{URL: cfg.RedisURL})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return r, r.Close, nil
	default:
		return kv.NewSQLite(database), noop, nil
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Post("/price", s.handlePrice)

		r.Route("/calculator", func(r chi.Router) {
			r.Use(s.sessionMiddleware)
			r.Get("/", s.handleCalculator)
			r.Put("/window-type", s.handleSetWindowType)
			r.Put("/dimensions", s.handleSetDimensions)
			r.Put("/profile", s.handleSetOption((*calculator.Store).SetProfile))
			r.Put("/glazing", s.handleSetOption((*calculator.Store).SetGlazing))
			r.Put("/hardware", s.handleSetOption((*calculator.Store).SetHardware))
			r.Put("/installation", s.handleSetInstallation)
			r.Post("/extras/{id}/toggle", s.handleToggleExtra)
			r.Post("/reset", s.handleReset)
			r.Post("/calculate", s.handleCalculate)
			r.Get("/summary", s.handleSummary)

			r.Get("/history", s.handleHistoryList)
			r.Post("/history", s.handleHistorySave)
			r.Delete("/history", s.handleHistoryClear)
			r.Post("/history/{id}/load", s.handleHistoryLoad)
			r.Delete("/history/{id}", s.handleHistoryDelete)
		})
	})
	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := s.log.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		ctx = s.log.WithField(ctx, "method", r.Method)
		ctx = s.log.WithField(ctx, "path", r.URL.Path)
		ctx = s.log.WithField(ctx, "status", ww.Status())
		ctx = s.log.WithField(ctx, "duration_ms", time.Since(start).Milliseconds())
		s.log.Debug(ctx, "request")
	})
}

// sessionMiddleware attaches the visitor's session id, issuing a new signed
// cookie when the request has none or a tampered one.
func (s *server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookieName); err == nil {
			id, _ = s.signer.verifySessionValue(c.Value)
		}
		if id == "" {
			id = uuid.NewString()
			s.signer.setSessionCookie(w, id)
		}
		ctx := context.WithValue(r.Context(), sessionCtxKey{}, id)
		ctx = s.log.WithSessionID(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
