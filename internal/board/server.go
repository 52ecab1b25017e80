package board

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"berthplan/internal/berth"
)

// Options configures a board server.
type Options struct {
	Addr    string
	Timeout time.Duration // per-request; 15s when zero

	// Location is the zone the ?day= window is read in; UTC when nil.
	Location *time.Location

	IDGen berth.IDGenerator // session ids; uuids when nil
	Clock berth.Clock       // uptime and session timestamps; wall clock when nil
}

// Server serves the planning board API over one BerthService.
type Server struct {
	http     *http.Server
	router   chi.Router
	svc      *berth.BerthService
	sessions *registry
	logger   berth.Logger
	loc      *time.Location
	clock    berth.Clock
	started  time.Time
}

// NewServer builds the router, middlewares and routes.
func NewServer(svc *berth.BerthService, logger berth.Logger, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.IDGen == nil {
		opts.IDGen = berth.UUIDGenerator{}
	}
	if opts.Clock == nil {
		opts.Clock = berth.RealClock{}
	}

	s := &Server{
		svc:      svc,
		sessions: newRegistry(opts.IDGen, opts.Clock),
		logger:   logger,
		loc:      opts.Location,
		clock:    opts.Clock,
		started:  opts.Clock.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))
	r.Use(logRequests(logger))
	s.routes(r)
	s.router = r

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.Timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

func (s *Server) routes(r chi.Router) {
	r.Get("/healthz", s.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/versions", s.listVersions)
		r.Route("/versions/{id}", func(r chi.Router) {
			r.Get("/", s.showVersion)
			r.Delete("/", s.deleteVersion)
			r.Get("/violations", s.versionViolations)
		})

		r.Post("/sessions", s.openSession)
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", s.showSession)
			r.Delete("/", s.closeSession)
			r.Post("/moves", s.moveBooking)
			r.Post("/berth", s.reassignBooking)
			r.Post("/undo", s.undo)
			r.Post("/revert", s.revert)
			r.Post("/save", s.save)
		})
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start runs the HTTP server until Stop is called or it fails.
func (s *Server) Start() error {
	s.logger.Info("board listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("board shutting down", "open_sessions", s.sessions.Len())
	return s.http.Shutdown(ctx)
}
