package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the slot allocation engine.
// A nil *BookingMetrics is valid and records nothing.
type BookingMetrics struct {
	reservations     *prometheus.CounterVec
	contention       *prometheus.CounterVec
	autoBookAttempts prometheus.Histogram
	transitions      *prometheus.CounterVec
	matches          *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psych",
			Subsystem: "booking",
			Name:      "reservations_total",
			Help:      "Reservation outcomes by booking method",
		}, []string{"method", "outcome"}),
		contention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psych",
			Subsystem: "booking",
			Name:      "slot_contention_total",
			Help:      "Writes rejected because another active booking held the slot",
		}, []string{"operation"}),
		autoBookAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "psych",
			Subsystem: "booking",
			Name:      "auto_book_attempts",
			Help:      "Attempts used by automatic booking before it returned",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psych",
			Subsystem: "booking",
			Name:      "status_transitions_total",
			Help:      "Status changes applied by the sweep and lazy refresh",
		}, []string{"from", "to", "source"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psych",
			Subsystem: "matching",
			Name:      "results_total",
			Help:      "Provider matcher results by tier",
		}, []string{"tier"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "psych",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservations, m.contention, m.autoBookAttempts, m.transitions, m.matches, m.httpLatency)
	return m
}

func (m *BookingMetrics) ObserveReservation(method, outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(method, outcome).Inc()
}

func (m *BookingMetrics) ObserveContention(operation string) {
	if m == nil {
		return
	}
	m.contention.WithLabelValues(operation).Inc()
}

func (m *BookingMetrics) ObserveAutoBookAttempts(attempts int) {
	if m == nil {
		return
	}
	m.autoBookAttempts.Observe(float64(attempts))
}

func (m *BookingMetrics) ObserveTransition(from, to, source string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.transitions.WithLabelValues(from, to, source).Add(float64(count))
}

func (m *BookingMetrics) ObserveMatch(tier string) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues(tier).Inc()
}

func (m *BookingMetrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, status).Observe(seconds)
}
