package handler

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// GetLegacyHealth handles GET /health, the probe the mobile app calls.
func (s *Server) GetLegacyHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
