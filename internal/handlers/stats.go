package handlers

import (
	"net/http"

	"github.com/charlapp/charla/internal/relay"
)

// StatsResponse reports live relay occupancy.
type StatsResponse struct {
	ConnectedClients int `json:"connected_clients"`
}

// StatsHandler contains HTTP handlers exposing relay statistics.
type StatsHandler struct {
	hub *relay.Hub
}

// NewStatsHandler creates a new StatsHandler instance.
func NewStatsHandler(hub *relay.Hub) *StatsHandler {
	return &StatsHandler{hub: hub}
}

// GetStats handles GET /api/stats
// Returns the number of currently connected clients.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		ConnectedClients: h.hub.ClientCount(),
	})
}
