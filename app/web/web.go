// Package web serves the previous session snapshot over http. GET returns the content, POST, PUT and
// DELETE erase it. Status, metrics and a small html page are served alongside.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/kmsglast/app/service"
	"github.com/umputun/kmsglast/app/snapshot"
)

// maxRequestSize limits request bodies of all routes except erase
const maxRequestSize = 64 * 1024

//go:embed templates/*.html
var templatesFS embed.FS

// Server represents the web server
type Server struct {
	snap         Snapshot
	status       StatusProvider
	metrics      Metrics
	tmpl         *template.Template
	baseURL      string
	hostname     string
	version      string
	passwordHash string
	disableErase bool
	eraseLimiter *limiter.Limiter
}

// Snapshot is the previous session content
type Snapshot interface {
	Bytes() []byte
	Open() *snapshot.File
	BuiltAt() time.Time
	Len() int
}

// StatusProvider reports recorder state
type StatusProvider interface {
	Status() service.Status
}

// Metrics records snapshot access and serves collected metrics
type Metrics interface {
	SnapshotRead(n int)
	SnapshotErased()
	Handler() http.Handler
}

// Config holds server configuration
type Config struct {
	Snapshot     Snapshot
	Status       StatusProvider
	Metrics      Metrics // optional, no /metrics endpoint if nil
	BaseURL      string  // base URL path for reverse proxy (e.g., /kmsg), empty for root
	Hostname     string  // hostname to display on status page
	Version      string
	PasswordHash string  // bcrypt hash for basic auth (empty to disable)
	DisableErase bool    // reject erase requests
	EraseRate    float64 // erase requests per second per client, 1 if not set
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Snapshot == nil || cfg.Status == nil {
		return nil, fmt.Errorf("web server initialization failed: snapshot and status provider are required")
	}

	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"humanBytes": humanBytes,
		"timeFmt":    func(t time.Time) string { return t.Format(time.RFC3339) },
	}).ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}

	rate := cfg.EraseRate
	if rate <= 0 {
		rate = 1
	}
	lmt := tollbooth.NewLimiter(rate, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessage(`{"error":"too many requests"}`)
	lmt.SetMessageContentType("application/json")

	return &Server{
		snap:         cfg.Snapshot,
		status:       cfg.Status,
		metrics:      cfg.Metrics,
		tmpl:         tmpl,
		baseURL:      cfg.BaseURL,
		hostname:     cfg.Hostname,
		version:      cfg.Version,
		passwordHash: cfg.PasswordHash,
		disableErase: cfg.DisableErase,
		eraseLimiter: lmt,
	}, nil
}

// Run starts the web server and blocks until ctx is done
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("kmsglast", "umputun", s.version),
		rest.Ping,
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	// must be set before any routes are defined
	if s.passwordHash != "" {
		log.Printf("[INFO] authentication enabled for web access")
		router.Use(s.authMiddleware)
	} else {
		log.Printf("[WARN] authentication disabled, previous session console is open to everyone")
	}

	// erase accepts a body of any size, the limit applies to everything else
	limited := router.With(rest.SizeLimit(maxRequestSize))
	limited.HandleFunc("GET /{$}", s.handleIndex)

	router.Group().Route(func(b *routegroup.Bundle) {
		b.Use(rest.NoCache)
		b.With(rest.SizeLimit(maxRequestSize)).HandleFunc("GET /kmsg.last", s.handleRead)
		erase := b.With(tollbooth.HTTPMiddleware(s.eraseLimiter))
		erase.HandleFunc("POST /kmsg.last", s.handleErase)
		erase.HandleFunc("PUT /kmsg.last", s.handleErase)
		erase.HandleFunc("DELETE /kmsg.last", s.handleErase)
	})

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache, rest.SizeLimit(maxRequestSize))
		api.HandleFunc("GET /status", s.handleAPIStatus)
	})

	if s.metrics != nil {
		limited.Handle("GET /metrics", s.metrics.Handler())
	}

	return router
}

func (s *Server) url(path string) string {
	return s.baseURL + path
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
