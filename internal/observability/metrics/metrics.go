package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	sessionsStarted  prometheus.Counter
	bookingsTotal    *prometheus.CounterVec
	fallbackBookings prometheus.Counter
	phoneLookups     *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cleanmachine",
			Subsystem: "booking",
			Name:      "sessions_started_total",
			Help:      "Total booking sessions created",
		}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleanmachine",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Total appointments booked",
		}, []string{"service", "status"}),
		fallbackBookings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cleanmachine",
			Subsystem: "booking",
			Name:      "fallback_bookings_total",
			Help:      "Bookings made without a concrete time slot",
		}),
		phoneLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleanmachine",
			Subsystem: "booking",
			Name:      "phone_lookups_total",
			Help:      "Returning-customer phone lookups",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleanmachine",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification delivery attempts",
		}, []string{"kind", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cleanmachine",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sessionsStarted, m.bookingsTotal, m.fallbackBookings, m.phoneLookups, m.notifications, m.requestLatency)
	return m
}

func (m *BookingMetrics) ObserveSessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *BookingMetrics) ObserveBooking(service, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(service, status).Inc()
}

func (m *BookingMetrics) ObserveFallbackBooking() {
	if m == nil {
		return
	}
	m.fallbackBookings.Inc()
}

func (m *BookingMetrics) ObservePhoneLookup(result string) {
	if m == nil {
		return
	}
	m.phoneLookups.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveNotification(kind, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, status).Inc()
}

func (m *BookingMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, route, status).Observe(seconds)
}
