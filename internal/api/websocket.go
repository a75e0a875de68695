package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"asteroid-drift/internal/game"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	MaxWSConnectionsTotal = 500
	MaxWSConnectionsPerIP = 10

	// DefaultBroadcastHz applies when the server is given no broadcast rate.
	DefaultBroadcastHz = 10

	wsWriteTimeout = time.Second
	wsSendQueue    = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

// checkOrigin lets non-browser clients (no Origin header) through.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || IsAllowedOrigin(origin) {
		return true
	}
	log.Printf("⚠️ WebSocket origin %q refused", origin)
	RecordConnectionRejected("origin")
	return false
}

type wsClient struct {
	conn       *websocket.Conn
	ip         string
	canControl bool
	limiter    *rate.Limiter
	send       chan []byte

	// pressed and not yet released; touched by the reader goroutine only
	held map[game.Action]struct{}
}

type wsCommand struct {
	Event  string `json:"event"` // "control"
	Action string `json:"action"`
	Active *bool  `json:"active"`
}

// WebSocketHub pushes world state to browser clients and forwards their
// controls to the engine. Each client has a reader and a writer goroutine;
// a client whose send queue is full misses that frame.
type WebSocketHub struct {
	engine       EngineInterface
	controlToken string
	slots        *WebSocketRateLimiter

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	closed  bool

	frames   chan []byte
	stop     chan struct{}
	stopOnce sync.Once
}

func NewWebSocketHub(engine EngineInterface, controlToken string) *WebSocketHub {
	return &WebSocketHub{
		engine:       engine,
		controlToken: controlToken,
		slots:        NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		clients:      make(map[*wsClient]struct{}),
		frames:       make(chan []byte, 16),
		stop:         make(chan struct{}),
	}
}

// Run fans broadcast frames out to clients until Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stop:
			return
		case frame := <-h.frames:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
				}
			}
			h.mu.RUnlock()
			IncrementWSMessages()
		}
	}
}

// Stop disconnects every client and ends Run and the broadcast loop.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
		h.mu.Lock()
		h.closed = true
		for c := range h.clients {
			h.removeLocked(c)
		}
		h.mu.Unlock()
		UpdateWSConnections(0)
	})
}

func (h *WebSocketHub) add(c *wsClient) bool {
	h.mu.Lock()
	if h.closed || len(h.clients) >= MaxWSConnectionsTotal {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	log.Printf("📱 Client connected from %s (%d total)", c.ip, n)
	UpdateWSConnections(n)
	return true
}

func (h *WebSocketHub) remove(c *wsClient) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	n := len(h.clients)
	h.mu.Unlock()

	if removed {
		log.Printf("📱 Client %s disconnected (%d remaining)", c.ip, n)
		UpdateWSConnections(n)
	}
}

// removeLocked closes c's queue, which ends its writer and then its
// connection. Caller holds mu.
func (h *WebSocketHub) removeLocked(c *wsClient) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	close(c.send)
	h.slots.Release(c.ip)
	return true
}

// Broadcast queues {"event": event, "data": data} for every client. It never
// blocks; frames are dropped while the hub is backed up.
func (h *WebSocketHub) Broadcast(event string, data any) {
	frame, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{event, data})
	if err != nil {
		log.Printf("⚠️ Broadcast %s: %v", event, err)
		return
	}
	select {
	case h.frames <- frame:
	default:
	}
}

func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes world state hz times per second, skipping ticks
// with no listeners or no new snapshot.
func (h *WebSocketHub) StartBroadcastLoop(hz int) {
	if hz <= 0 {
		hz = DefaultBroadcastHz
	}
	go func() {
		t := time.NewTicker(time.Second / time.Duration(hz))
		defer t.Stop()

		var last uint64
		for {
			select {
			case <-h.stop:
				return
			case <-t.C:
			}
			if h.ClientCount() == 0 {
				continue
			}
			snap := h.engine.GetSnapshot()
			if snap.Sequence == last {
				continue
			}
			last = snap.Sequence
			h.Broadcast("world:state", stateJSON(&snap))
		}
	}()
}

// HandleWebSocket upgrades the request and serves the client until either
// side hangs up.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if n := h.ClientCount(); n >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket refused, %d clients connected", n)
		RecordConnectionRejected("ws_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.slots.Allow(ip) {
		log.Printf("⚠️ WebSocket refused for %s, per-IP limit", ip)
		RecordConnectionRejected("ws_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	canControl := CanControl(h.controlToken, r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		h.slots.Release(ip)
		return
	}

	c := &wsClient{
		conn:       conn,
		ip:         ip,
		canControl: canControl,
		limiter:    newControlLimiter(),
		send:       make(chan []byte, wsSendQueue),
		held:       make(map[game.Action]struct{}),
	}
	if !h.add(c) {
		h.slots.Release(ip)
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *WebSocketHub) writePump(c *wsClient) {
	defer c.conn.Close()
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(wsWriteTimeout))
}

func (h *WebSocketHub) readPump(c *wsClient) {
	defer func() {
		h.releaseHeld(c)
		h.remove(c)
		c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleCommand(c, msg)
	}
}

func (h *WebSocketHub) handleCommand(c *wsClient, msg []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Event != "control" {
		return
	}
	if !c.canControl {
		RecordConnectionRejected("invalid")
		return
	}
	if !c.limiter.Allow() {
		RecordConnectionRejected("rate_limit")
		return
	}

	action, err := game.ParseAction(cmd.Action)
	if err != nil {
		return
	}
	active := cmd.Active == nil || *cmd.Active
	if err := h.engine.Control(action, active); err != nil {
		log.Printf("📨 Control from %s ignored: %v", c.ip, err)
		return
	}
	if active {
		c.held[action] = struct{}{}
	} else {
		delete(c.held, action)
	}
}

// releaseHeld lets go of every control a departing client still holds, so
// the ship does not keep thrusting after a dropped connection.
func (h *WebSocketHub) releaseHeld(c *wsClient) {
	for action := range c.held {
		if err := h.engine.Control(action, false); err != nil {
			log.Printf("📨 Release of %s for %s failed: %v", action, c.ip, err)
		}
		delete(c.held, action)
	}
}
