package web

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/kmsglast/app/service"
)

const snapshotContentType = "text/plain; charset=us-ascii"

// handleRead serves the snapshot content, supports ranges and conditional requests.
// The content is copied in one step, a concurrent erase never produces a torn body.
func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	data := s.snap.Bytes()
	w.Header().Set("Content-Type", snapshotContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, "kmsg.last", s.snap.BuiltAt(), bytes.NewReader(data))
	if s.metrics != nil {
		s.metrics.SnapshotRead(len(data))
	}
}

// handleErase discards the snapshot whatever the body holds and reports the body size as consumed
func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	if s.disableErase {
		s.writeJSONError(w, http.StatusForbidden, "erase disabled")
		return
	}

	// any write erases, the body is streamed through and only counted
	f := s.snap.Open()
	n, err := io.Copy(f, r.Body)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "can't read request body")
		return
	}
	if n == 0 {
		if _, err = f.Write(nil); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "can't erase snapshot")
			return
		}
	}
	if s.metrics != nil {
		s.metrics.SnapshotErased()
	}
	log.Printf("[INFO] previous session snapshot erased by %s", r.RemoteAddr)
	s.writeJSON(w, http.StatusOK, APIEraseResponse{Consumed: n})
}

// handleIndex renders the status page with the snapshot content
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := struct {
		Hostname string
		Version  string
		Status   service.Status
		Content  string
		ReadURL  string
		Now      time.Time
	}{
		Hostname: s.hostname,
		Version:  s.version,
		Status:   s.status.Status(),
		Content:  string(s.snap.Bytes()),
		ReadURL:  s.url("/kmsg.last"),
		Now:      time.Now(),
	}

	var buf strings.Builder
	if err := s.tmpl.Execute(&buf, data); err != nil {
		log.Printf("[ERROR] failed to render status page: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = io.WriteString(w, buf.String())
}
