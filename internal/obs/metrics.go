package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	seederRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeder_runs_total",
			Help: "Completed database seeding runs by result.",
		},
		[]string{"result"},
	)

	seederUsersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seeder_users_created_total",
		Help: "Synthetic users created by the seeding job.",
	})

	seederPostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seeder_posts_created_total",
		Help: "Synthetic posts created by the seeding job.",
	})
)

// Init registers service metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		seederRunsTotal,
		seederUsersCreated,
		seederPostsCreated,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSeederRun records the outcome of one seeding run.
func ObserveSeederRun(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	seederRunsTotal.WithLabelValues(result).Inc()
}

// CountSeededUser increments the created-users counter.
func CountSeededUser() { seederUsersCreated.Inc() }

// CountSeededPost increments the created-posts counter.
func CountSeededPost() { seederPostsCreated.Inc() }

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses resource identifiers so metric labels stay bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch parts[0] {
	case "posts":
		switch len(parts) {
		case 2:
			return "/posts/:id"
		case 3:
			switch parts[2] {
			case "like", "likes", "share":
				return "/posts/:id/" + parts[2]
			}
		}
	case "users":
		if len(parts) == 2 {
			return "/users/:id"
		}
	}
	return path
}

// statusWriter captures the response code for labelling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
