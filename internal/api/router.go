package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiv2 "github.com/hashicorp-forge/hermes-distributor/internal/api/v2"
	"github.com/hashicorp-forge/hermes-distributor/internal/server"
)

// NewRouter registers the HTTP routes and middleware stack. Metrics are
// exposed on /metrics from gatherer when srv.Metrics is set.
func NewRouter(srv server.Server, gatherer prometheus.Gatherer) http.Handler {
	if srv.Logger == nil {
		srv.Logger = hclog.NewNullLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(srv.Logger.Named("http")))
	if srv.Metrics != nil {
		r.Use(srv.Metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(middleware.GetHead)

	health := apiv2.HealthHandler(srv)
	distribute := apiv2.DistributeHandler(srv)

	r.Method(http.MethodGet, "/health", health)

	for _, path := range []string{"/api/v2/distribute", "/api/distribute"} {
		r.Method(http.MethodGet, path, health)
		r.Method(http.MethodPost, path, distribute)
	}

	if srv.Metrics != nil && gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// requestLogger logs every request once it has been served.
func requestLogger(log hclog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}
