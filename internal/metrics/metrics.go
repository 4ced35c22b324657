// Package metrics provides Prometheus metrics for the filedrop server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedrop_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedrop_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	storageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedrop_storage_operations_total",
			Help: "Total number of storage operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	bytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedrop_bytes_uploaded_total",
			Help: "Total bytes accepted by successful uploads",
		},
	)

	bytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedrop_bytes_downloaded_total",
			Help: "Total bytes returned by successful downloads",
		},
	)

	tempFilesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedrop_temp_files_swept_total",
			Help: "Stale temp files removed by the janitor",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordStorageOperation counts a storage call and, on success, the bytes moved.
func RecordStorageOperation(operation, outcome string, uploaded, downloaded int64) {
	storageOperationsTotal.WithLabelValues(operation, outcome).Inc()
	if uploaded > 0 {
		bytesUploaded.Add(float64(uploaded))
	}
	if downloaded > 0 {
		bytesDownloaded.Add(float64(downloaded))
	}
}

// RecordTempFilesSwept counts temp files removed by a janitor run.
func RecordTempFilesSwept(n int) {
	if n > 0 {
		tempFilesSwept.Add(float64(n))
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. Routes are labelled by
// their mux template so entry names never become label values.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
