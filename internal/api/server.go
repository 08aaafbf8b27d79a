package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sstewart199/ring/internal/directory"
	"github.com/sstewart199/ring/internal/infrastructure/config"
	"github.com/sstewart199/ring/internal/infrastructure/logging"
	"github.com/sstewart199/ring/internal/ring"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// DirectorySource gives handlers the current directory and lets them
// rebuild it. *directory.Builder satisfies it.
type DirectorySource interface {
	Current() (*directory.Directory, error)
	Build(ctx context.Context) (*directory.Directory, error)
}

// HistoryFetcher reads recent events from the Ring account.
// *ring.Client satisfies it.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, limit int, favoritesOnly bool) ([]ring.HistoryEvent, error)
}

// HealthChecker is an optional dependency reported by /health.
// *mqtt.Client and *influxdb.Client satisfy it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Directory DirectorySource
	History   HistoryFetcher
	// Components are reported by name in the health response. Nil
	// entries are skipped.
	Components map[string]HealthChecker
	// Bridge, when set, adds MQTT bridge counters to /metrics.
	Bridge BridgeMetricsProvider
	// HistoryLimit is the default number of history events returned.
	HistoryLimit int
	Version      string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	directory  DirectorySource
	history    HistoryFetcher
	components map[string]HealthChecker
	bridge     BridgeMetricsProvider
	historyMax int
	version    string
	server     *http.Server
	listener   net.Listener
	hub        *Hub
	startTime  time.Time
	cancel     context.CancelFunc // cancels the hub on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called. The WebSocket hub
// exists from construction so Hub().Attach can be registered with the
// directory builder before the first build.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("directory source is required")
	}

	components := make(map[string]HealthChecker, len(deps.Components))
	for name, c := range deps.Components {
		if c != nil {
			components[name] = c
		}
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		directory:  deps.Directory,
		history:    deps.History,
		components: components,
		bridge:     deps.Bridge,
		historyMax: historyLimitOrDefault(deps.HistoryLimit),
		version:    deps.Version,
		hub:        NewHub(deps.WS, deps.Logger),
		startTime:  time.Now(),
	}, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// The listener is bound before Start returns, so a port conflict is
// reported to the caller. Requests are served on a background goroutine
// until Close.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
