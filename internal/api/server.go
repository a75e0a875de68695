package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// statsInterval is how often event log counters are copied into metrics.
const statsInterval = 5 * time.Second

// ServerOptions configures the API server.
type ServerOptions struct {
	ControlToken string
	BroadcastHz  int
}

// Server serves the REST routes and the /ws state feed.
type Server struct {
	engine      EngineInterface
	opts        ServerOptions
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	stop        chan struct{}
}

// NewServer wires the router and hub. Nothing runs until Start; tests that
// only need the REST routes can use NewRouter.
func NewServer(engine EngineInterface, opts ServerOptions) *Server {
	s := &Server{
		engine: engine,
		opts:   opts,
		wsHub:  NewWebSocketHub(engine, opts.ControlToken),
		stop:   make(chan struct{}),
	}

	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	s.router = NewRouter(RouterConfig{
		Engine:       engine,
		RateLimiter:  s.rateLimiter,
		ControlToken: opts.ControlToken,
	})

	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start runs the hub and serves addr. It blocks until the listener fails, or
// returns nil after Shutdown.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.opts.BroadcastHz)
	go s.statsLoop()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🛰️ World state: http://localhost%s/api/state", addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Router exposes the handler for httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Shutdown stops accepting requests, closes websocket clients and stops
// background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.wsHub.Stop()
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) statsLoop() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			stats := s.engine.GetEventLogStats()
			total, _ := stats["total"].(uint64)
			dropped, _ := stats["dropped"].(uint64)
			UpdateEventLogStats(total, dropped)
		}
	}
}
