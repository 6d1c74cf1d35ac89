// Package metrics defines and registers all custom Prometheus metrics for
// the Vetrix clinic API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vetrix"

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "rate_limited", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts by outcome.
// Label:
//   - result: "created", "validation_failed", "conflict", or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts bearer-token verifications at the
// middleware boundary.
// Label:
//   - result: "ok" or "rejected"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of access-token verifications, by result.",
	},
	[]string{"result"},
)

// AuthorizationDenialsTotal counts requests that authenticated but failed a
// role or capability check.
var AuthorizationDenialsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denials_total",
		Help:      "Total number of authenticated requests denied by RBAC.",
	},
)

// TwoFactorChecksTotal counts one-time-code verifications.
// Label:
//   - result: "ok" or "rejected"
var TwoFactorChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "two_factor_checks_total",
		Help:      "Total number of two-factor code verifications, by result.",
	},
	[]string{"result"},
)

// SessionsTerminatedTotal counts explicit session terminations (logout or
// remote terminate), not sweeper reaping.
var SessionsTerminatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_terminated_total",
		Help:      "Total number of sessions terminated on request.",
	},
)
