package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChallengesIssued counts issued challenges.
	ChallengesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "walletauth_challenges_issued_total",
			Help: "Total number of sign-in challenges issued",
		},
	)

	// Verifications counts verification attempts by outcome.
	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletauth_verifications_total",
			Help: "Total number of challenge verification attempts",
		},
		[]string{"status"},
	)

	// RateLimited counts rejected requests per operation.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletauth_rate_limited_total",
			Help: "Total number of rate-limited requests",
		},
		[]string{"operation"},
	)

	// StoreFallbacks counts operations that fell through to the in-process tier.
	StoreFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletauth_store_fallback_total",
			Help: "Total number of challenge store operations served by the fallback tier",
		},
		[]string{"operation"},
	)

	// RateLimiterErrors counts limiter store failures that failed open.
	RateLimiterErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "walletauth_rate_limiter_errors_total",
			Help: "Total number of rate limiter store errors (request allowed)",
		},
	)
)
