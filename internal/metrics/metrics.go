package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the core operations, exposed on /metrics.
var (
	VotesCast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "votebyte_votes_cast_total",
		Help: "Successfully committed vote transactions.",
	})

	VoteRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "votebyte_votes_rejected_total",
		Help: "Vote attempts rejected by a precondition check.",
	}, []string{"reason"})

	OTPIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "votebyte_otp_issued_total",
		Help: "One-time codes issued and delivered.",
	})

	OTPVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "votebyte_otp_verified_total",
		Help: "One-time code verification attempts by outcome.",
	}, []string{"outcome"})

	BiometricChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "votebyte_biometric_checks_total",
		Help: "Biometric verification attempts by outcome.",
	}, []string{"outcome"})
)
