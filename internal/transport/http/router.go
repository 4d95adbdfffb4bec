// Package httptransport assembles the public HTTP surface: the middleware
// chain, every domain handler, and the unauthenticated operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthchain/internal/platform/metrics"
	"healthchain/internal/platform/middleware"
	"healthchain/pkg/platform/httputil"
)

// Registrar is implemented by every domain handler; Register mounts the
// handler's routes on the router it is given.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options carries everything the router needs beyond the handlers.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Validator      middleware.JWTValidator
	RequestTimeout time.Duration

	// HealthChecks are probed by /healthz; a failing check flips the
	// endpoint to 503.
	HealthChecks map[string]HealthChecker
}

// NewRouter builds the full HTTP handler. Every business route sits behind
// the authentication middleware; /healthz and /metrics do not.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.Latency(opts.Metrics))

	r.Get("/healthz", healthHandler(opts.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(opts.Validator, opts.Logger))
		for _, h := range handlers {
			h.Register(r)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
