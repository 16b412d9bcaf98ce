// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_bookings_total",
		Help: "Booking submissions by admission outcome",
	}, []string{"outcome"})

	// BookingRaces counts inserts that lost to a concurrent identical booking.
	BookingRaces = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_booking_races_total",
		Help: "Inserts rejected by the store uniqueness constraint",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_notifications_total",
		Help: "Booking notifications by delivery result",
	}, []string{"result"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_request_duration_seconds",
		Help:    "Request duration by transport, route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"transport", "route", "status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
