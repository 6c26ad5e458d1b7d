package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"psych-booking-engine/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type requestInfoKey struct{}

// requestInfo lets inner middleware report back to the outer request logger.
type requestInfo struct {
	userID string
}

func setRequestUser(ctx context.Context, userID string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.userID = userID
	}
}

type RequestLogger struct {
	log     *logrus.Logger
	metrics *metrics.BookingMetrics
}

func NewRequestLogger(log *logrus.Logger, bookingMetrics *metrics.BookingMetrics) *RequestLogger {
	return &RequestLogger{log: log, metrics: bookingMetrics}
}

// Handle logs one line per request and records its latency under the route template.
func (m *RequestLogger) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		info := &requestInfo{}
		r = r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info))

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)

		fields := logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
		}
		if info.userID != "" {
			fields["user_id"] = info.userID
		}

		entry := m.log.WithFields(fields)
		switch {
		case rec.status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case rec.status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}

		m.metrics.ObserveHTTP(r.Method, route, strconv.Itoa(rec.status), elapsed.Seconds())
	})
}
