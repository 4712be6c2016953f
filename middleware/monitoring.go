package middleware

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// FanOutFailures counts per-activity gamification tasks that failed and
	// were swallowed instead of surfacing to the activity-logging caller.
	FanOutFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_fanout_failures_total",
			Help: "Failed per-activity gamification side effects by task",
		},
		[]string{"task"},
	)

	// RecalcDuration tracks full ranking recalculation passes.
	RecalcDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_recalculation_duration_seconds",
			Help:    "Duration of full leaderboard recalculation passes",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// UsersRanked reports the population size of the last recalculation.
	UsersRanked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ranking_users_ranked",
			Help: "Users scored in the last recalculation pass",
		},
	)
)

// InitPrometheus registers the metrics. Call this from main.go
func InitPrometheus() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(FanOutFailures)
	prometheus.MustRegister(RecalcDuration)
	prometheus.MustRegister(UsersRanked)
}

// MonitorMiddleware wraps the router to track all request stats
func MonitorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()
		path := r.URL.Path
		status := http.StatusText(ww.status)

		httpRequestsTotal.WithLabelValues(path, r.Method, status).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// BasicAuthMiddleware protects the metrics endpoint with the credentials
// from METRICS_USER / METRICS_PASS.
func BasicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != os.Getenv("METRICS_USER") || pass != os.Getenv("METRICS_PASS") {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
