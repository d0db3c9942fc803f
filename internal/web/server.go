// Package web serves the storefront JSON API and the generic collection API
// over the record engine.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/sheetdb/internal/catalog"
	"github.com/JonMunkholm/sheetdb/internal/config"
	"github.com/JonMunkholm/sheetdb/internal/core"
	"github.com/JonMunkholm/sheetdb/internal/web/middleware"
)

// Server is the HTTP server for the record service.
type Server struct {
	engine   *core.Engine
	catalog  *catalog.Service
	cfg      *config.Config
	auditLog AuditLog
	router   *chi.Mux
	server   *http.Server
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAuditLog serves the stored audit trail under /api/audit.
func WithAuditLog(log AuditLog) Option {
	return func(s *Server) {
		s.auditLog = log
	}
}

// NewServer creates a Server.
func NewServer(engine *core.Engine, svc *catalog.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		catalog: svc,
		cfg:     cfg,
		router:  chi.NewRouter(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Security.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "Authorization", "X-Request-Id"},
		MaxAge:         300,
	}))
	if s.cfg.Rate.Enabled {
		s.router.Use(newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
	s.router.Use(middleware.RequestMetadata)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.NotFound(s.handleNotFound)

	writes := func(h http.Handler) http.Handler { return h }
	if s.cfg.Rate.Enabled {
		writes = newRateLimiter(s.cfg.Rate.WriteLimit, time.Minute).middleware
	}

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if s.cfg.Security.EnableDebugEndpoint {
			r.Get("/debug", s.handleDebug)
		}

		// Storefront
		r.Get("/artesanos", s.listHandler(core.Artesanos, "artesanos", "Error al cargar artesanos"))
		r.Get("/artesanos/{id}", s.handleArtesano)
		r.Get("/proyectos", s.listHandler(core.Proyectos, "proyectos", "Error al cargar proyectos"))
		r.Get("/voluntarios", s.listHandler(core.Voluntarios, "voluntarios", "Error al cargar voluntarios"))
		r.Get("/articulosBlog", s.listHandler(core.ArticulosBlog, "articulosBlogs", "Error al cargar artículos"))
		r.Get("/productos", s.handleProductos)
		r.Get("/productos/categoria/{categoria}", s.handleProductosPorCategoria)
		r.Get("/productos/{id}", s.handleProducto)
		r.With(writes).Post("/consultas", s.handleCrearConsulta)
		r.Get("/consultas", s.handleConsultas)
		r.Get("/informes", s.handleInformes)

		// Generic collection API
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(s.cfg.Security))

			r.Get("/probe/{collection}", s.handleProbe)
			r.Get("/collections", s.handleListCollections)
			r.Get("/collections/{collection}", s.handleGetAll)
			r.Get("/collections/{collection}/{id}", s.handleGetByID)
			r.With(writes).Post("/collections/{collection}", s.handleCreate)
			r.With(writes).Put("/collections/{collection}/{id}", s.handleUpdate)
			r.With(writes).Patch("/collections/{collection}/{id}", s.handleUpdate)
			r.With(writes).Delete("/collections/{collection}/{id}", s.handleDelete)

			if s.auditLog != nil {
				r.Get("/audit", s.handleAuditLog)
			}
		})
	})
}

// Start begins listening for HTTP requests.
// It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr, "backend", s.engine.Backend())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses. The service only
// returns JSON and small HTML fragments.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
