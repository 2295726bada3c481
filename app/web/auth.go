package web

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/crypto/bcrypt"
)

// authUser is the basic auth user name, only the password is configurable
const authUser = "kmsglast"

// authMiddleware requires basic auth with authUser and the password matching the bcrypt hash.
// Failed attempts are logged with the client address, the erase rate limiter doesn't see them.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	realm := s.realm()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authorized(r) {
			next.ServeHTTP(w, r)
			return
		}
		log.Printf("[WARN] unauthorized %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
		s.writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *Server) authorized(r *http.Request) bool {
	user, passwd, ok := r.BasicAuth()
	if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(authUser)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(passwd)) == nil
}

// realm names the host, so saved credentials of different machines don't mix
func (s *Server) realm() string {
	if s.hostname == "" {
		return authUser
	}
	return authUser + "@" + s.hostname
}
