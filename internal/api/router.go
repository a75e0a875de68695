package api

import (
	"asteroid-drift/internal/game"
	"asteroid-drift/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface is the part of *game.Engine the HTTP and websocket layers use.
type EngineInterface interface {
	// GetSnapshot returns a copy of the latest published world snapshot
	GetSnapshot() game.GameSnapshot
	// Stats returns engine counters
	Stats() game.EngineStats
	// Body returns one live body by handle
	Body(handle int) (game.BodySnapshot, error)
	// Control presses or releases a ship control
	Control(action game.Action, active bool) error
	// SetGravity changes the ambient acceleration
	SetGravity(x, y float64)
	// Restart begins a new round
	Restart()
	// RecentEvents returns up to n of the newest logged events
	RecentEvents(n int) []game.Event
	// GetEventLogStats returns event log counters
	GetEventLogStats() map[string]interface{}
}

// RouterConfig wires NewRouter. Only Engine is required.
type RouterConfig struct {
	Engine EngineInterface

	// RateLimiter is shared with the caller when set; otherwise one is built
	// from RateLimitConfig, or DefaultRateLimitConfig when that is nil too.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to localhost on any port.
	CORSOrigins []string

	// ControlToken guards mutating routes. Empty leaves them open.
	ControlToken string

	// Renderer draws the debug hitbox image. If nil, one is sized from the first snapshot.
	Renderer *render.HitboxRenderer

	DisableLogging bool // drops middleware.Logger
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine   EngineInterface
	renderer *render.HitboxRenderer
}

// NewRouter builds the chi router. It opens no listener and starts no loops
// besides the rate limiter's cleanup, so tests can mount it on httptest.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limit before CORS so rejected requests cost as little as possible
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", ControlTokenHeader},
		AllowCredentials: true,
	}))

	renderer := cfg.Renderer
	if renderer == nil {
		snap := cfg.Engine.GetSnapshot()
		width, height := int(snap.ViewportW), int(snap.ViewportH)
		if width <= 0 || height <= 0 {
			width, height = 640, 360
		}
		renderer = render.NewHitboxRenderer(width, height)
	}

	h := &routerHandlers{
		engine:   cfg.Engine,
		renderer: renderer,
	}
	guard := ControlTokenMiddleware(cfg.ControlToken)

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// World state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/bodies/{handle}", h.handleGetBody)
		r.Get("/events", h.handleGetEvents)
		r.Get("/debug/hitboxes.png", h.handleHitboxes)

		// Mutations
		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Post("/control", h.handleControl)
			r.Post("/world/gravity", h.handleGravity)
			r.Post("/world/restart", h.handleRestart)
		})
	})

	return r
}
