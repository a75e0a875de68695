package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// ControlTokenHeader carries the control token when no bearer header is used.
const ControlTokenHeader = "X-Control-Token"

// requestToken extracts a control token from the Authorization bearer header,
// the X-Control-Token header, or the "token" query parameter (websocket clients
// cannot set headers from a browser).
func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := r.Header.Get(ControlTokenHeader); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// tokenMatches compares in constant time. Both sides are hashed first so the
// comparison does not leak the expected length.
func tokenMatches(expected, provided string) bool {
	want := sha256.Sum256([]byte(expected))
	got := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// CanControl reports whether r may drive the simulation. An empty expected
// token leaves control open.
func CanControl(expected string, r *http.Request) bool {
	if expected == "" {
		return true
	}
	return tokenMatches(expected, requestToken(r))
}

// ControlTokenMiddleware rejects requests without the configured token.
// With an empty token it is a pass-through.
func ControlTokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !CanControl(token, r) {
				log.Printf("🔐 Control request rejected from %s", GetClientIP(r))
				RecordConnectionRejected("invalid")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":   "unauthorized",
					"message": "Control token required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
