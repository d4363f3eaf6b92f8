// Package http serves the reflection dashboard: CSV upload, happiness
// ratings, regret aggregates, insight prose, what-if projections, and
// report delivery.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"losslens/internal/amqp"
	"losslens/internal/core"
	"losslens/internal/insight"
	applog "losslens/internal/log"
	"losslens/internal/session"
	appweb "losslens/web"
)

// Categorizer fills in missing categories on a transaction set.
type Categorizer interface {
	Apply(ctx context.Context, txns []core.Transaction)
}

// InsightGenerator produces prose for an aggregate view.
type InsightGenerator interface {
	Generate(ctx context.Context, view core.AggregateView, mode insight.Mode) string
}

// ReportPublisher queues a report email for the mail worker.
type ReportPublisher interface {
	PublishReport(ctx context.Context, msg *amqp.ReportMessage) error
}

// SheetWriter pushes the export table to an external spreadsheet.
type SheetWriter interface {
	Write(ctx context.Context, txns []core.Transaction) error
}

// Deps carries everything the server needs. Publisher and Sheets are
// optional; their endpoints report unavailability when nil.
type Deps struct {
	Sessions    *session.Store
	Categorizer Categorizer
	Insights    InsightGenerator
	Publisher   ReportPublisher
	Sheets      SheetWriter

	TopN           int
	MaxUploadBytes int64
}

type Server struct {
	http.Server
	templates *template.Template

	sessions    *session.Store
	categorizer Categorizer
	insights    InsightGenerator
	publisher   ReportPublisher
	sheets      SheetWriter

	topN           int
	maxUploadBytes int64

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		sessions:       deps.Sessions,
		categorizer:    deps.Categorizer,
		insights:       deps.Insights,
		publisher:      deps.Publisher,
		sheets:         deps.Sheets,
		topN:           deps.TopN,
		maxUploadBytes: deps.MaxUploadBytes,
		rateLimiter:    newRateLimiter(),
		metrics:        &securityMetrics{},
	}
	if s.topN < 1 {
		s.topN = 5
	}
	if s.maxUploadBytes < 1 {
		s.maxUploadBytes = 5 << 20
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Tiny cache for static assets
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/upload", s.withSecurityHeaders(s.handleUpload))
	mux.HandleFunc("/rate", s.withSecurityHeaders(s.handleRate))
	mux.HandleFunc("/whatif", s.withSecurityHeaders(s.handleWhatIf))
	mux.HandleFunc("/predict", s.withSecurityHeaders(s.handlePredict))
	mux.HandleFunc("/export.csv", s.withSecurityHeaders(s.handleExportCSV))
	mux.HandleFunc("/export/sheets", s.withSecurityHeaders(s.handleExportSheets))
	mux.HandleFunc("/email", s.withSecurityHeaders(s.handleEmail))
	// UI partials
	mux.HandleFunc("/ui/transactions", s.withSecurityHeaders(s.handleTransactions))
	mux.HandleFunc("/ui/overview", s.withSecurityHeaders(s.handleOverview))
	mux.HandleFunc("/ui/insight", s.withSecurityHeaders(s.handleInsight))
	mux.HandleFunc("/ui/peers", s.withSecurityHeaders(s.handlePeers))

	// Every request rides a context logger carrying its request ID, so
	// the middleware and handlers log under one trace.
	requestLogger := applog.New(applog.Config{Component: applog.ComponentHTTP})
	s.Server.Handler = applog.Middleware(requestLogger)(
		applog.RequestIDMiddleware(requestIDFor)(mux))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		logger := applog.FromContext(r.Context())

		logger.InfoContext(r.Context(), "Request started",
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(r.Context(), "Suspicious request", "client_ip", clientIP, "url", r.URL.Path)
		}

		// Rate-limit mutating requests only; partial refreshes stay cheap.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		fields := applog.NewFields().
			WithOperation(r.Method + " " + r.URL.Path).
			WithHTTPResponse(rw.statusCode, time.Since(start).Milliseconds(), rw.statusCode < http.StatusBadRequest)
		logger.InfoContext(r.Context(), "Request completed", fields.ToSlice()...)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
