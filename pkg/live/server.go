package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weft-ui/weft/pkg/fragment"
	"github.com/weft-ui/weft/pkg/telemetry"
	"github.com/weft-ui/weft/pkg/wire"
)

// RootFactory builds the root component spec for a new session. Called
// once per connection, so per-session closures are safe.
type RootFactory func() *fragment.ComponentSpec

// Server accepts WebSocket connections and runs one session per client.
type Server struct {
	cfg     *Config
	root    RootFactory
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session

	httpSrv *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the structured logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithMetrics attaches Prometheus instruments shared by all sessions.
func WithMetrics(m *telemetry.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithTracer attaches OpenTelemetry tracing.
func WithTracer(t *telemetry.Tracer) ServerOption {
	return func(s *Server) { s.tracer = t }
}

// NewServer creates a server. cfg may be nil for defaults.
func NewServer(cfg *Config, root RootFactory, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:      cfg,
		root:     root,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	// Same-origin fallback.
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// Handler returns the HTTP mux: the live endpoint plus health and
// metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/live", s.handleLive)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err, "remote", r.RemoteAddr)
		return
	}

	sess := newSession(conn, s.root(), s.cfg, s.logger, s.metrics, s.tracer)

	hello := &wire.Hello{Version: wire.ProtocolVersion, Session: sess.ID()}
	if err := sess.writeFrame(wire.NewFrame(wire.FrameHello, wire.EncodeHello(hello))); err != nil {
		s.logger.Warn("hello write failed", "err", err)
		conn.Close()
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	s.logger.Info("session opened", "session", sess.ID(), "remote", r.RemoteAddr)

	go sess.run()
	sess.readLoop()

	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
	s.logger.Info("session closed", "session", sess.ID())
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.httpSrv = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: 0, // WebSocket writes manage their own deadlines
	}
	s.logger.Info("live server listening", "addr", s.cfg.Addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.writeFrame(wire.NewFrame(wire.FrameControl, wire.EncodeControl(wire.ControlShutdown)))
		sess.Close()
	}

	if s.httpSrv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}
