// Package http exposes the month views and forecasts as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"patrimonio/internal/core"
	"patrimonio/internal/engine"
	"patrimonio/internal/log"
	"patrimonio/internal/middleware/ratelimit"
	"patrimonio/internal/services"
)

type (
	// MonthReader lists months and loads a single month view.
	MonthReader interface {
		Months(ctx context.Context) ([]core.Entry, error)
		Load(ctx context.Context, m core.Month) (*services.MonthView, error)
	}

	Forecaster interface {
		Forecast(ctx context.Context, m core.Month) (engine.Forecast, error)
	}

	// ReadyFunc reports whether the data source can serve requests.
	ReadyFunc func(ctx context.Context) error
)

// Options wires the server to its collaborators. Selector, SelectLimiter
// and Ready are optional.
type Options struct {
	Months             MonthReader
	Forecasts          Forecaster
	Selector           *services.Selector
	SelectLimiter      *ratelimit.Limiter
	Backend            string
	Ready              ReadyFunc
	CORSAllowedOrigins []string
	Logger             *log.Logger
}

// Server is the API server.
type Server struct {
	http.Server

	months    MonthReader
	forecasts Forecaster
	selector  *services.Selector
	limiter   *ratelimit.Limiter
	backend   string
	ready     ReadyFunc
	logger    *log.Logger
	metrics   securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures the routes and returns a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	s := &Server{
		months:    opts.Months,
		forecasts: opts.Forecasts,
		selector:  opts.Selector,
		limiter:   opts.SelectLimiter,
		backend:   opts.Backend,
		ready:     opts.Ready,
		logger:    logger.WithComponent(log.ComponentHTTP),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(s.withRequestLogging)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(withSecurityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/months", s.handleMonths)
		r.Route("/months/{month}", func(r chi.Router) {
			r.Use(monthParam)
			r.Get("/", s.handleMonth)
			r.Get("/forecast", s.handleForecast)
		})
		r.Get("/selection", s.handleSelection)
		r.With(s.limitSelections).Put("/selection", s.handleSelect)
	})

	return r
}

// Shutdown stops the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestLogging logs every finished request and flags scanner traffic.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		if detectSuspiciousRequest(r, &s.metrics) {
			log.FromContext(r.Context()).Warn("Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"suspicious_total", s.metrics.suspiciousRequests.Load())
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.LogHTTPEnd(r.Context(), r, status, time.Since(start).Milliseconds(), clientIP)
	})
}

// limitSelections throttles PUT /api/selection per client, since every
// call starts a background load.
func (s *Server) limitSelections(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).Warn("Selection rate limit exceeded",
			log.FieldClientIP, extractClientIP(r),
			"rejected_total", s.limiter.Rejected(),
			"active_clients", s.limiter.ActiveClients())
		RespondError(w, r, http.StatusTooManyRequests, "too many selections", nil)
	})(next)
}
