package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/portinscan/portinscan/infrastructure/service/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// MetricsMiddleware records request count and latency per method, path and status.
func MetricsMiddleware(recorder metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			recorder.ObserveHTTP(strings.ToUpper(r.Method), normalizePath(r.URL.Path), status, time.Since(start))
		})
	}
}

// normalizePath replaces id-like segments so the path label stays bounded.
func normalizePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			seg = ":param"
		}
		out = append(out, seg)
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 32 {
		return true
	}
	if _, err := strconv.Atoi(seg); err == nil {
		return true
	}
	return strings.Count(seg, "-") >= 4
}
