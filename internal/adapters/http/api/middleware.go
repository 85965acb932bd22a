package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/battrend/pkg/logger"
	"github.com/okian/battrend/pkg/metrics"
)

// statusRecorder remembers the status a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// instrument counts and times every request to endpoint. Server errors are
// logged; everything else only at debug.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		elapsed := time.Since(start)

		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, elapsed.Seconds())

		fields := []logger.Field{
			logger.String("endpoint", endpoint),
			logger.String("method", r.Method),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", elapsed),
		}
		if kind := errorKind(rec.status); kind != "" {
			metrics.RecordErrorByComponent("http", kind)
			if rec.status >= http.StatusInternalServerError {
				s.log.Error(r.Context(), "request failed", fields...)
				return
			}
		}
		s.log.Debug(r.Context(), "request served", fields...)
	}
}

// errorKind labels a failed status for the error counter, or returns ""
// when the request succeeded.
func errorKind(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return ""
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusRequestEntityTooLarge:
		return "too_large"
	case status == http.StatusUnprocessableEntity:
		return "insufficient_data"
	case status == http.StatusTooManyRequests:
		return "backpressure"
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= http.StatusInternalServerError:
		return "server_error"
	default:
		return "client_error"
	}
}
