// Package metrics defines and registers all custom Prometheus metrics for the
// accounts API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - kind: "admin" or "user"
//   - result: "success" or "invalid"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by identity kind and result.",
	},
	[]string{"kind", "result"},
)

// AuthorizationDeniedTotal counts requests rejected by the authorization table.
// Labels:
//   - action: the attempted action (e.g. "delete_user")
//   - kind: the caller kind
var AuthorizationDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denied_total",
		Help:      "Total number of denied authorization decisions.",
	},
	[]string{"action", "kind"},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersCreatedTotal counts newly created accounts.
// Label:
//   - source: "admin" (created from the admin panel) or "register" (self sign-up)
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by source.",
	},
	[]string{"source"},
)

// EmailConfirmationsTotal counts email verification attempts.
// Label:
//   - result: "confirmed", "mismatch", or "expired"
var EmailConfirmationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_confirmations_total",
		Help:      "Total number of email verification attempts, by result.",
	},
	[]string{"result"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// VerificationEmailsTotal counts verification email deliveries.
// Label:
//   - result: "sent", "retry", "failed", or "dropped" (queue full)
var VerificationEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_emails_total",
		Help:      "Total number of verification email deliveries, by result.",
	},
	[]string{"result"},
)

// VerificationQueueDepth tracks the number of emails waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var VerificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "verification_queue_depth",
		Help:      "Current number of verification emails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// VerificationSendDuration measures a single delivery including retries.
var VerificationSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "verification_send_duration_seconds",
		Help:      "Duration of verification email delivery from dequeue to completion.",
		Buckets:   prometheus.DefBuckets,
	},
)
