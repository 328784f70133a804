// Package server exposes flame engines over HTTP.
//
// Each client creates a session, which owns one engine, then drives it
// through the session's endpoints:
//
//	POST   /sessions                    create a session
//	GET    /sessions                    list session IDs
//	GET    /sessions/{id}               engine status
//	DELETE /sessions/{id}               drop the session
//	GET    /sessions/{id}/frame         advance one step and return the frame as PNG
//	POST   /sessions/{id}/restart       restart (random, or directed with mx and my)
//	POST   /sessions/{id}/rerender      re-estimate bounds and clear the grid
//	PUT    /sessions/{id}/quality       switch quality mode
//	GET    /sessions/{id}/params        transform parameters
//	PUT    /sessions/{id}/params        load transform parameters
//	POST   /sessions/{id}/preset/{name} save the parameters as a preset
//	GET    /presets                     list presets
//	GET    /presets/{name}              show a preset
//	POST   /runs                        headless run, statistics only
//
// Frames are a view of the live buffer; nothing rendered is stored.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flametower/pkg/buildinfo"
	flameerrors "github.com/matzehuels/flametower/pkg/errors"
	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/pipeline"
	"github.com/matzehuels/flametower/pkg/session"
	"github.com/matzehuels/flametower/pkg/store"
)

// Default server settings.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultMaxSessions = session.DefaultMaxSessions
	shutdownTimeout    = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr        string
	SessionTTL  time.Duration
	MaxSessions int

	// Engine holds the defaults for new sessions. Request fields override it.
	Engine flame.Config

	Logger *log.Logger
}

// Server serves sessions, presets and headless runs.
type Server struct {
	cfg      Config
	logger   *log.Logger
	sessions *session.Registry
	presets  *store.Presets
	runner   *pipeline.Runner
}

// New creates a server. presets and runner may be nil, in which case the
// preset and run endpoints respond with UNSUPPORTED.
func New(cfg Config, presets *store.Presets, runner *pipeline.Runner) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	reg := session.NewRegistry(cfg.SessionTTL)
	if cfg.MaxSessions > 0 {
		reg.SetMaxSessions(cfg.MaxSessions)
	}
	return &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: reg,
		presets:  presets,
		runner:   runner,
	}
}

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.SetHeader("Server", buildinfo.UserAgent()))
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/frame", s.handleFrame)
			r.Post("/restart", s.handleRestart)
			r.Post("/rerender", s.handleRerender)
			r.Put("/quality", s.handleQuality)
			r.Get("/params", s.handleGetParams)
			r.Put("/params", s.handlePutParams)
			r.Post("/preset/{name}", s.handleSavePreset)
		})
	})

	r.Get("/presets", s.handleListPresets)
	r.Get("/presets/{name}", s.handleShowPreset)
	r.Post("/runs", s.handleRun)
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
// Expired sessions are swept in the background.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.sessions.Janitor(janitorCtx, session.DefaultCleanupInterval, func(n int) {
		s.logger.Debug("expired sessions removed", "count", n)
	})

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
