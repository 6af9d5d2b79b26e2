package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application counters, registered on the default Prometheus registry and
// exposed on /metrics.
var (
	UserRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localspot_users_registered_total",
		Help: "Total number of accounts registered.",
	})
	LoginSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localspot_logins_success_total",
		Help: "Total number of successful logins, credential and OAuth combined.",
	})
	LoginFailureTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localspot_logins_failure_total",
		Help: "Total number of refused login attempts.",
	})
	ExchangeIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localspot_exchange_tokens_issued_total",
		Help: "Total number of one-time exchange tokens issued after OAuth callbacks.",
	})
	ExchangeRedeemedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localspot_exchange_tokens_redeemed_total",
		Help: "Total number of exchange redemptions that returned a session bundle.",
	})
	ExchangeMissTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localspot_exchange_tokens_miss_total",
		Help: "Total number of exchange redemptions that found no token (expired, replayed late, or never issued).",
	})
	VerificationBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localspot_verification_gate_blocked_total",
		Help: "Total number of requests refused because the account email is unverified.",
	})
)
