// Package server provides the HTTP API for the link recommendation service.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wikimedia/research-mwaddlink/internal/classifier"
	"github.com/wikimedia/research-mwaddlink/internal/config"
)

// Server is the HTTP server for the recommendation API.
type Server struct {
	cfg     *config.Config
	models  *classifier.Cache
	db      *sql.DB // mysql dataset pool, nil for the sqlite backend
	logger  *zap.Logger
	version string
	server  *http.Server

	// loadModel resolves a model path to a classifier. Defaults to the
	// model cache; replaced in tests.
	loadModel func(path string) (classifier.Classifier, error)
}

// NewServer creates a server with the given dependencies. db may be nil when
// the dataset backend is sqlite.
func NewServer(
	cfg *config.Config,
	models *classifier.Cache,
	db *sql.DB,
	version string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:     cfg,
		models:  models,
		db:      db,
		logger:  logger,
		version: version,
	}
	if models != nil {
		s.loadModel = models.Get
	}
	return s
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/v1/linkrecommendations/{project}/{domain}/*", s.handleQuery)
	r.Post("/v1/linkrecommendations/{project}/{domain}/*", s.handleQuery)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestID attaches a request ID to the response headers, honoring one sent
// by the caller.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
