package api

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"asteroid-drift/internal/game"
	"asteroid-drift/internal/physics"

	"github.com/go-chi/chi/v5"
)

const (
	defaultEventCount = 50
	maxEventCount     = 500
	maxGravity        = 10000
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, stateJSON(&snap))
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"engine":   h.engine.Stats(),
		"eventLog": h.engine.GetEventLogStats(),
	})
}

func (h *routerHandlers) handleGetBody(w http.ResponseWriter, r *http.Request) {
	handle, err := strconv.Atoi(chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, "Handle must be an integer", http.StatusBadRequest)
		return
	}

	body, err := h.engine.Body(handle)
	if err != nil {
		if physics.IsHandleError(err) {
			writeError(w, err.Error(), http.StatusNotFound)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, body)
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	n := defaultEventCount
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = min(parsed, maxEventCount)
	}

	events := h.engine.RecentEvents(n)
	out := make([]map[string]interface{}, 0, len(events))
	for _, ev := range events {
		out = append(out, map[string]interface{}{
			"sequence":  ev.Sequence,
			"type":      ev.Type.String(),
			"tick":      ev.TickNum,
			"source":    ev.Source,
			"timestamp": ev.Timestamp,
			"payload":   json.RawMessage(ev.Payload),
		})
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleHitboxes(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.EncodePNG(w, &snap); err != nil {
		log.Printf("⚠️ Hitbox render failed: %v", err)
	}
}

func (h *routerHandlers) handleControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Active *bool  `json:"active"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	action, err := game.ParseAction(req.Action)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Omitted "active" presses the control
	active := req.Active == nil || *req.Active

	if err := h.engine.Control(action, active); err != nil {
		if errors.Is(err, game.ErrGameOver) {
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"action":  action,
		"active":  active,
	})
}

func (h *routerHandlers) handleGravity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if math.Abs(req.X) > maxGravity || math.Abs(req.Y) > maxGravity {
		writeError(w, "Gravity out of range", http.StatusBadRequest)
		return
	}

	h.engine.SetGravity(req.X, req.Y)
	log.Printf("🌍 Gravity set to (%.2f, %.2f) via API", req.X, req.Y)
	writeJSON(w, map[string]float64{"x": req.X, "y": req.Y})
}

func (h *routerHandlers) handleRestart(w http.ResponseWriter, r *http.Request) {
	h.engine.Restart()
	stats := h.engine.Stats()
	writeJSON(w, map[string]interface{}{
		"success":   true,
		"round":     stats.Round,
		"highScore": stats.HighScore,
	})
}

// stateJSON is the world state shape shared by GET /api/state and the websocket.
func stateJSON(snap *game.GameSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"sequence": snap.Sequence,
		"tick":     snap.TickNumber,
		"bodies":   snap.Bodies,
		"hud":      snap.HUD,
		"camera": map[string]float64{
			"x":      snap.CameraX,
			"y":      snap.CameraY,
			"width":  snap.ViewportW,
			"height": snap.ViewportH,
		},
		"gravity":    map[string]float64{"x": snap.GravityX, "y": snap.GravityY},
		"liveBodies": snap.LiveBodies,
		"asteroids":  snap.Asteroids,
		"bullets":    snap.Bullets,
		"contacts":   snap.Contacts,
		"truncated":  snap.Truncated,
	}
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
