package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_login_attempts_total",
			Help: "Total login attempts by outcome",
		},
		[]string{"outcome"},
	)

	GrantsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_grants_issued_total",
			Help: "Total access grants issued or extended",
		},
	)

	RequestsDecided = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_requests_decided_total",
			Help: "Total access requests decided by outcome",
		},
		[]string{"outcome"},
	)

	IncidentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_honeypot_incidents_total",
			Help: "Total honeypot trap triggers recorded",
		},
	)

	LockdownActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_lockdown_active",
			Help: "Whether the global lockdown is currently enabled (0 or 1)",
		},
	)

	GeoLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_geo_lookup_failures_total",
			Help: "Geolocation lookups that failed or timed out",
		},
	)
)
