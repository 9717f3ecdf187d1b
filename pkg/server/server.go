// Package server assembles the SIGEL HTTP server: the auction and checklist
// APIs behind the role switch, health endpoints and the background workers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/sigel-gov/sigel/pkg/audit"
	"github.com/sigel-gov/sigel/pkg/authz"
	"github.com/sigel-gov/sigel/pkg/cache"
	"github.com/sigel-gov/sigel/pkg/checklist"
	"github.com/sigel-gov/sigel/pkg/config"
	"github.com/sigel-gov/sigel/pkg/database"
	"github.com/sigel-gov/sigel/pkg/events"
	"github.com/sigel-gov/sigel/pkg/leilao"
)

// APIPrefix is the base path of the versioned API.
const APIPrefix = "/api/v1"

// pinger is implemented by backends whose connectivity gates readiness.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server owns the long-lived components of a SIGEL process.
type Server struct {
	cfg       *config.Config
	db        *gorm.DB
	logger    *slog.Logger
	extractor authz.RoleExtractor
	readCache cache.Store
	publisher events.Publisher
	manager   *leilao.Manager
	engine    *checklist.Engine
	startedAt time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithPublisher replaces the configured event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithReadCache replaces the configured read cache.
func WithReadCache(c cache.Store) Option {
	return func(s *Server) { s.readCache = c }
}

// New builds the server components from cfg over a migrated database.
func New(cfg *config.Config, db *gorm.DB, logger *slog.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, db: db, logger: logger, startedAt: time.Now()}
	for _, opt := range opts {
		opt(s)
	}

	extractor, err := authz.NewExtractor(&cfg.Auth, logger)
	if err != nil {
		return nil, err
	}
	s.extractor = extractor

	if s.readCache == nil {
		s.readCache, err = cache.New(&cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
	}
	if s.publisher == nil {
		s.publisher, err = events.New(&cfg.Events, logger)
		if err != nil {
			return nil, fmt.Errorf("create event publisher: %w", err)
		}
	}

	managerOpts := []leilao.Option{
		leilao.WithPublisher(s.publisher),
		leilao.WithLogger(logger.With("component", "leilao")),
	}
	if s.readCache != nil {
		managerOpts = append(managerOpts, leilao.WithCacheInvalidator(s.readCache))
	}
	s.manager = leilao.NewManager(db, managerOpts...)

	s.engine, err = checklist.NewEngine(&cfg.Checklist,
		checklist.WithStore(checklist.NewSessionStore(db)),
		checklist.WithLogger(logger.With("component", "checklist")))
	if err != nil {
		return nil, fmt.Errorf("create checklist engine: %w", err)
	}

	return s, nil
}

// Manager returns the auction lifecycle manager.
func (s *Server) Manager() *leilao.Manager { return s.manager }

// Engine returns the checklist engine.
func (s *Server) Engine() *checklist.Engine { return s.engine }

// Router mounts every route on a fresh chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Role"},
		ExposedHeaders:   []string{"X-Cache"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.healthHandler)
	r.Get("/livez", s.healthHandler)
	r.Get("/readyz", s.readyHandler)

	var invalidator leilao.CacheInvalidator
	if s.readCache != nil {
		invalidator = s.readCache
	}

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(authz.IdentityMiddleware(s.extractor))
		if s.cfg.Audit.Enabled {
			r.Use(audit.Middleware(leilao.NewAuditStore(s.db), invalidator, &s.cfg.Audit, s.logger))
		}
		r.Mount("/checklist", checklist.NewRouter(s.engine, s.readCache))
		r.Mount("/", leilao.NewRouter(s.manager, s.readCache))
	})

	return r
}

// Start launches the background workers. They stop when ctx is cancelled
// or Stop is called.
func (s *Server) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.RunRetention(ctx)
	}()
}

// Stop flushes pending checklist saves, stops the workers and releases the
// event publisher and cache connections.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	var errs []error
	if err := s.engine.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close checklist engine: %w", err))
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event publisher: %w", err))
	}
	if c, ok := s.readCache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// readyHandler reports ready when the database and, if configured, the
// remote cache answer.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ready := true
	dbStatus := map[string]string{"status": "up"}
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus["status"] = "down"
		dbStatus["error"] = err.Error()
		ready = false
	}

	cacheStatus := map[string]string{"status": "not_configured"}
	if s.readCache != nil {
		cacheStatus["status"] = "up"
		if p, ok := s.readCache.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				cacheStatus["status"] = "down"
				cacheStatus["error"] = err.Error()
				ready = false
			}
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"components": map[string]any{
			"database": dbStatus,
			"cache":    cacheStatus,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
