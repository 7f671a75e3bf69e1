package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

const (
	metricHTTPRequestsTotal     = "http_requests_total"
	metricHTTPDurationSeconds   = "http_request_duration_seconds"
	metricHTTPRequestsActive    = "http_active_requests"
	metricHTTPRequestSizeBytes  = "http_request_size_bytes"
	metricHTTPResponseSizeBytes = "http_response_size_bytes"
)

// HTTPRequestInfo is the shape recordHttpRequest takes in spec.md §4.6:
// method/route/status/durationMs are always recorded; RequestBytes
// and ResponseBytes are conditional (zero means "not observed");
// Service labels the request with the emitting service when the
// process hosts more than one (defaults to the engine's ServiceName).
type HTTPRequestInfo struct {
	Method        string
	Path          string
	StatusCode    int
	Duration      time.Duration
	RequestBytes  int64
	ResponseBytes int64
	Service       string
}

// RecordHTTPRequest records one completed HTTP request against the
// whole HTTP metric family atomically from the caller's perspective:
// the counter, duration histogram, and (when given) the size
// histograms are all updated before this returns (spec.md §5 ordering
// guarantees). The raw path is normalized into a cardinality-safe
// route template first. Registration errors (e.g. an undeclared
// metric in strict taxonomy mode) are joined and returned rather than
// silently dropped.
func (e *Engine) RecordHTTPRequest(info HTTPRequestInfo) error {
	route := NormalizeRoute(info.Path)
	service := info.Service
	if service == "" {
		service = e.ServiceName
	}

	var errs []error
	record := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	record(e.IncrCounter(metricHTTPRequestsTotal, map[string]string{
		"method":  info.Method,
		"route":   route,
		"status":  strconv.Itoa(info.StatusCode),
		"service": service,
	}))

	sizeLabels := map[string]string{"method": info.Method, "route": route, "service": service}
	// ms -> seconds per spec.md §4.6 ("converts ms -> seconds by dividing by 1000").
	seconds := float64(info.Duration.Microseconds()) / 1_000_000
	record(e.ObserveHistogram(metricHTTPDurationSeconds, seconds, sizeLabels))

	if info.RequestBytes > 0 {
		record(e.ObserveHistogram(metricHTTPRequestSizeBytes, float64(info.RequestBytes), sizeLabels))
	}
	if info.ResponseBytes > 0 {
		record(e.ObserveHistogram(metricHTTPResponseSizeBytes, float64(info.ResponseBytes), sizeLabels))
	}

	return joinErrors(errs)
}

// TrackActiveRequest increments the in-flight gauge for service (or
// the engine's default ServiceName when empty) and returns a release
// function that decrements it; callers must invoke release on every
// exit path, including errors (spec.md §4.6 "trackActiveRequest").
func (e *Engine) TrackActiveRequest(service string) func() {
	if service == "" {
		service = e.ServiceName
	}
	labels := map[string]string{"service": service}
	_ = e.SetGauge(metricHTTPRequestsActive, e.activeDelta(service, 1), labels)
	return func() {
		_ = e.SetGauge(metricHTTPRequestsActive, e.activeDelta(service, -1), labels)
	}
}

func (e *Engine) activeDelta(key string, delta float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeCounts == nil {
		e.activeCounts = make(map[string]float64)
	}
	e.activeCounts[key] += delta
	if e.activeCounts[key] < 0 {
		e.activeCounts[key] = 0
	}
	return e.activeCounts[key]
}

// Middleware wraps an http.Handler with request counting, duration
// histogramming, and in-flight gauge tracking. routeTemplate should be
// the registered route pattern (e.g. "/users/:id"), not the raw
// request path, so the caller controls cardinality directly; when
// empty, the raw request path is normalized instead. Request/response
// sizes are taken from Content-Length when the client sent one, and
// from bytes actually written for the response.
func (e *Engine) Middleware(routeTemplate string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeTemplate
		if route == "" {
			route = r.URL.Path
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		release := e.TrackActiveRequest(e.ServiceName)
		next.ServeHTTP(rec, r)
		release()
		_ = e.RecordHTTPRequest(HTTPRequestInfo{
			Method:        r.Method,
			Path:          route,
			StatusCode:    rec.status,
			Duration:      time.Since(start),
			RequestBytes:  r.ContentLength,
			ResponseBytes: int64(rec.bytesWritten),
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status       int
	bytesWritten int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytesWritten += n
	return n, err
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
