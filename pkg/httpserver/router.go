package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orbion/subledger/pkg/logger"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// NewOpsRouter mounts the operational endpoints:
//
//   - GET /healthz: liveness, always ALIVE.
//   - GET /readyz: runs every check; READY or 503 NOT_READY.
//   - GET /metrics: Prometheus exposition of gatherer.
func NewOpsRouter(log *slog.Logger, gatherer prometheus.Gatherer, checkTimeout time.Duration, checks map[string]Check) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	if checkTimeout <= 0 {
		checkTimeout = 3 * time.Second
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		for _, name := range names {
			ctx, cancel := context.WithTimeout(req.Context(), checkTimeout)
			err := checks[name](ctx)
			cancel()
			if err != nil {
				log.ErrorContext(req.Context(), "readiness check failed",
					logger.Component(name),
					logger.Error(err),
				)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}
