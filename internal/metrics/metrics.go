package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hashicorp-forge/hermes-distributor/pkg/distribute"
)

// Metrics holds the Prometheus collectors of the distributor.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// TokenLookupsTotal counts token cache lookups by result ("hit", "miss").
	TokenLookupsTotal *prometheus.CounterVec

	// DistributionsTotal counts distributions by outcome ("ok" or the
	// failure kind).
	DistributionsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "distributor_http_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"route", "method", "code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributor_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		TokenLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "distributor_token_cache_lookups_total",
				Help: "Total number of tenant access token cache lookups",
			},
			[]string{"base_url", "result"},
		),
		DistributionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "distributor_distributions_total",
				Help: "Total number of template distributions by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TokenLookupsTotal,
		m.DistributionsTotal,
	)

	return m
}

// ObserveTokenLookup implements lark.CacheObserver.
func (m *Metrics) ObserveTokenLookup(baseURL string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.TokenLookupsTotal.WithLabelValues(baseURL, result).Inc()
}

// ObserveDistribution implements distribute.Observer.
func (m *Metrics) ObserveDistribution(res distribute.Result) {
	outcome := "ok"
	if !res.OK {
		outcome = res.Kind.String()
	}
	m.DistributionsTotal.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and durations, labelled by the chi
// route pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
