package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by method (password|google) and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulend_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "result"},
	)

	// TokensIssued counts verification and reset tokens issued by purpose.
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulend_tokens_issued_total",
			Help: "Total number of verification tokens issued",
		},
		[]string{"purpose"},
	)

	// TokenRedemptions counts token redemption attempts by purpose and outcome
	// (valid|invalid|expired|used).
	TokenRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulend_token_redemptions_total",
			Help: "Total number of token redemption attempts",
		},
		[]string{"purpose", "outcome"},
	)

	// RoleChecks counts privileged-route role checks and their outcome (allowed|denied|error).
	RoleChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulend_role_checks_total",
			Help: "Total number of role authorization checks",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edulend_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
