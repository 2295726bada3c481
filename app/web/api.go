package web

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/kmsglast/app/service"
)

// APIStatusResponse is the JSON response for /api/v1/status
type APIStatusResponse struct {
	service.Status
	Hostname  string    `json:"hostname,omitempty"`
	Version   string    `json:"version,omitempty"`
	BuiltAt   time.Time `json:"built_at,omitzero"`
	Timestamp time.Time `json:"timestamp"`
}

// APIEraseResponse is the JSON response for erase requests
type APIEraseResponse struct {
	Consumed int64 `json:"consumed"`
}

// handleAPIStatus returns JSON status of the recorder - designed for CLI/jq consumption
func (s *Server) handleAPIStatus(w http.ResponseWriter, _ *http.Request) {
	resp := APIStatusResponse{
		Status:    s.status.Status(),
		Hostname:  s.hostname,
		Version:   s.version,
		BuiltAt:   s.snap.BuiltAt(),
		Timestamp: time.Now(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
