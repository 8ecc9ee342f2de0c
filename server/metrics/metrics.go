package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	StatusCodeCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"service", "category", "method", "path"},
	)

	// ContactInvariantViolations tracks what the scheduled contact audit
	// finds: check-then-act races that slipped past the application checks.
	ContactInvariantViolations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contact_invariant_violations",
			Help: "Contact documents violating the cap or phone-uniqueness invariants",
		},
		[]string{"kind"},
	)
)

var registerOnce sync.Once

// HTTPMetrics records request metrics for a named service.
type HTTPMetrics struct {
	ServiceName string
}

func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDurationHistogram)
		prometheus.MustRegister(StatusCodeCategoryCounter)
		prometheus.MustRegister(ContactInvariantViolations)
	})

	return &HTTPMetrics{ServiceName: serviceName}
}

// Record observes one completed request. The path should be the route
// template (e.g. /contacts/{id}), not the raw URI, to keep cardinality down.
func (m *HTTPMetrics) Record(method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)

	RequestCounter.WithLabelValues(m.ServiceName, method, path, statusLabel).Inc()
	RequestDurationHistogram.WithLabelValues(m.ServiceName, method, path, statusLabel).Observe(duration.Seconds())

	category := ""
	switch {
	case status >= 200 && status < 300:
		category = "2xx"
	case status >= 400 && status < 500:
		category = "4xx"
	case status >= 500 && status < 600:
		category = "5xx"
	}

	if category != "" {
		StatusCodeCategoryCounter.WithLabelValues(m.ServiceName, category, method, path).Inc()
	}
}

// RoutePath returns the mux route template for the request, falling back to
// the raw path for unmatched requests.
func RoutePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}

	return r.URL.Path
}

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
