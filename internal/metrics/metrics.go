// README: Prometheus collectors for domain events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PresenceRefreshTotal counts refresh cycles by result (complete, partial).
	PresenceRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewtrack_presence_refresh_total",
			Help: "Presence refresh cycles by result",
		},
		[]string{"result"},
	)

	// FetchFailuresTotal counts source collection fetch failures.
	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewtrack_fetch_failures_total",
			Help: "Source collection fetch failures",
		},
		[]string{"collection"},
	)

	// CheckInTotal counts check-in and check-out mutations by action and result.
	CheckInTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewtrack_checkin_total",
			Help: "Check-in and check-out mutations",
		},
		[]string{"action", "result"},
	)

	// GeolocationSourceTotal counts which step of the coordinate chain won.
	GeolocationSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewtrack_geolocation_source_total",
			Help: "Check-in coordinate source",
		},
		[]string{"source"},
	)

	// BookingsTotal counts booking confirmations by result.
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewtrack_bookings_total",
			Help: "Booking confirmations",
		},
		[]string{"result"},
	)
)
