package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AuthEvents counts authentication outcomes, e.g. {event="login", outcome="failure"}.
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "seatrack", Name: "auth_events_total", Help: "Number of authentication events by type and outcome."},
		[]string{"event", "outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "seatrack", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "seatrack", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

// Outcome labels for AuthEvents.
const (
	Success = "success"
	Failure = "failure"
)

// RecordAuth increments AuthEvents for event with a success or failure outcome.
func RecordAuth(event string, err error) {
	outcome := Success
	if err != nil {
		outcome = Failure
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AuthEvents)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
