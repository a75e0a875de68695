package api

import (
	"errors"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"asteroid-drift/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-body labels)
var (
	// Simulation metrics
	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_frame_duration_seconds",
		Help:    "Time spent in one Step, including every fixed tick it ran",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	ticksPerFrame = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_ticks_per_frame",
		Help:    "Fixed ticks run per Step",
		Buckets: []float64{0, 1, 2, 3, 4, 5},
	})

	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Fixed ticks run",
	})

	narrowPhaseTests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_narrow_phase_tests_total",
		Help: "Pair tests run by the collision pass",
	})

	contactsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_contacts_total",
		Help: "Pair tests that reported a contact",
	})

	liveBodies = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_live_bodies",
		Help: "Live bodies by kind",
	}, []string{"kind"}) // Bounded: "all", "asteroid", "bullet"

	handleErrors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_handle_errors",
		Help: "Invalid handles passed to the physics world since start",
	})

	droppedTicks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_dropped_ticks",
		Help: "Ticks discarded because a frame fell too far behind",
	})

	// Event log metrics
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	relayViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_viewers",
		Help: "Viewer processes attached to the snapshot relay",
	})

	relayDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_dropped_snapshots",
		Help: "Snapshots superseded or skipped by the relay since start",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin or token check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "invalid", "ws_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is route pattern, not full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

const defaultDebugAddr = "127.0.0.1:6060"

// DebugServerConfig configures the pprof and metrics side server.
type DebugServerConfig struct {
	Enabled bool
	Addr    string // forced to loopback unless ALLOW_DEBUG_EXTERNAL=true
}

// loopbackAddr returns addr if its host is loopback, and the default
// address otherwise. pprof must never be reachable from outside the box.
func loopbackAddr(addr string, allowExternal bool) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultDebugAddr
	}
	if host == "localhost" || allowExternal {
		return addr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return addr
	}
	log.Printf("⚠️ Debug server address %s is not loopback, using %s", addr, defaultDebugAddr)
	return defaultDebugAddr
}

func debugMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// StartDebugServer serves pprof and /metrics in the background. It returns
// nil when disabled; otherwise the caller shuts the server down on exit.
func StartDebugServer(cfg DebugServerConfig) *http.Server {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	srv := &http.Server{
		Addr:              loopbackAddr(cfg.Addr, os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true"),
		Handler:           debugMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("📊 Debug server on http://%s (pprof: /debug/pprof/, metrics: /metrics)", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
	return srv
}

// metricsMiddleware records latency per chi route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// ObserveFrame records one engine Step. Registered as the engine's frame hook.
func ObserveFrame(report game.FrameReport) {
	frameDuration.Observe(report.Duration.Seconds())
	ticksPerFrame.Observe(float64(report.Ticks))
	ticksTotal.Add(float64(report.Ticks))
	narrowPhaseTests.Add(float64(report.Tests))
	contactsTotal.Add(float64(report.Contacts))

	liveBodies.WithLabelValues("all").Set(float64(report.Live))
	liveBodies.WithLabelValues("asteroid").Set(float64(report.Asteroids))
	liveBodies.WithLabelValues("bullet").Set(float64(report.Bullets))
	handleErrors.Set(float64(report.HandleErrors))
	droppedTicks.Set(float64(report.DroppedTicks))
}

// UpdateEventLogStats copies event log counters into gauges
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}

// ObserveRelay copies snapshot relay counters into gauges
func ObserveRelay(viewers int, dropped uint64) {
	relayViewers.Set(float64(viewers))
	relayDropped.Set(float64(dropped))
}

// RecordConnectionRejected increments the rejection counter
// reason must be one of: "rate_limit", "origin", "invalid", "ws_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
