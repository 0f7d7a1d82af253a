package handlers

import (
	"net/http"
	"time"
)

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// Health is the liveness probe. It answers 200 as long as the process
// serves requests; there is no external dependency to degrade on.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "bytedrop",
		Uptime:  time.Since(h.startedAt).Round(time.Second).String(),
	})
}
