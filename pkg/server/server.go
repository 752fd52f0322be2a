package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cerrors "github.com/cohis-dev/cohis/internal/errors"
	"github.com/cohis-dev/cohis/pkg/middleware"
	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/protocol"
	"github.com/cohis-dev/cohis/pkg/upload"
)

// Page builds the widgets of a new live session.
type Page func(*overlay.Layer) error

// Option configures a Server.
type Option func(*Server)

// WithPage sets the function that builds each session's widgets.
func WithPage(p Page) Option {
	return func(s *Server) { s.page = p }
}

// WithMetrics records HTTP and session metrics with m and serves gatherer on
// Config.MetricsPath.
func WithMetrics(m *middleware.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithTracing wraps every request in an OpenTelemetry server span.
func WithTracing(opts ...middleware.OTelOption) Option {
	return func(s *Server) {
		s.tracing = true
		s.otelOpts = opts
	}
}

// WithUploads mounts the upload API backed by store.
func WithUploads(store upload.Store, config *upload.Config) Option {
	return func(s *Server) {
		s.uploads = store
		s.uploadConfig = config
	}
}

// Server is the COHIS HTTP and WebSocket server.
type Server struct {
	config   *Config
	router   chi.Router
	upgrader websocket.Upgrader
	sessions *SessionManager
	page     Page

	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	tracing  bool
	otelOpts []middleware.OTelOption

	uploads      upload.Store
	uploadConfig *upload.Config

	mu         sync.Mutex
	httpServer *http.Server

	logger *slog.Logger
}

// New creates a Server. A nil config uses DefaultConfig.
func New(config *Config, opts ...Option) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	c := *config
	c.fill()

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &Server{
		config:   &c,
		sessions: newSessionManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(c.AllowedOrigins),
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.metrics.Handler)
	if s.tracing {
		r.Use(middleware.OpenTelemetry(s.otelOpts...))
	}

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/placement", s.handlePlacement)
		if s.uploads != nil {
			cfg := s.uploadConfig
			if cfg == nil {
				cfg = upload.DefaultConfig()
			}
			if cfg.Logger == nil {
				c := *cfg
				c.Logger = s.logger.With("component", "upload")
				cfg = &c
			}
			r.Mount("/uploads", upload.Routes(s.uploads, cfg))
		}
	})
	r.Get(ClientPath, s.serveClient)
	r.Head(ClientPath, s.serveClient)
	r.Get("/live", s.HandleLive)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the live session registry.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// HandleLive upgrades the request and runs a live session until the
// connection ends.
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		s.metrics.RecordWebSocketError("upgrade")
		return
	}

	sess := newSession(conn, s.config.Session, s.config.Overlay, s.metrics, s.logger)
	if !s.sessions.add(sess) {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		conn.Close()
		return
	}
	defer s.sessions.remove(sess.ID)

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()
	sess.logger.Info("session opened", "remote", r.RemoteAddr, "request_id", chimw.GetReqID(r.Context()))

	go sess.WriteLoop()

	if s.page != nil {
		if err := s.page(sess.layer); err != nil {
			sess.logger.Error("page build failed", "error", err)
			sess.fail(protocol.ErrServerError, err)
		}
		sess.flush()
	}

	sess.ReadLoop()
	<-sess.writeDone
	sess.logger.Info("session closed")
}

// Run listens on Config.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return cerrors.New("E121").Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return cerrors.New("E121").Wrap(err)

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
		defer cancel()
		err := s.Shutdown(shutdownCtx)
		<-errCh
		return err
	}
}

// Shutdown closes all sessions, then stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.sessions.Shutdown(ctx); err != nil {
		s.logger.Warn("sessions did not close in time", "error", err)
	}

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
