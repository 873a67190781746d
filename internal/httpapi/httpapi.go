// Package httpapi serves the daemon's health/status endpoints and upgrades
// the dashboard WebSocket connection, grounded on the pack's small
// JSON+upgrade HTTP API convention of routing with gorilla/mux.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"energy_controller/internal/model"
)

// LatestCommand is satisfied by the engine wiring.
type LatestCommand interface {
	Latest() (model.Command, bool)
}

// NewRouter builds the daemon's HTTP router: /health, /status, and the
// /ws upgrade handled by wsHandler.
func NewRouter(latest LatestCommand, wsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := latest.Latest()
		if !ok {
			http.Error(w, "no tick has run yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cmd)
	}).Methods(http.MethodGet)

	r.Handle("/ws", wsHandler)

	return r
}
