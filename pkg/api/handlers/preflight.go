package handlers

import (
	"net/http"
)

// Preflight answers CORS preflight requests for /post and any key path.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusOK)
}

// InvalidPath is the catch-all for unroutable requests and bad methods.
func (h *Handler) InvalidPath(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Invalid path")
}
