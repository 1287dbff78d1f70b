// Package metrics defines and registers the custom Prometheus metrics of the
// customer profile API. Metrics are registered with the default registry on
// package init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "customer_profile"

// ── Avatar metrics ────────────────────────────────────────────────────────────

// AvatarResolutionsTotal counts avatar URL resolutions.
// Labels:
//   - source: "current_customer" or "customer_id"
//   - result: "view" (file found) or "placeholder"
var AvatarResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "avatar_resolutions_total",
		Help:      "Total number of avatar URL resolutions, by source and result.",
	},
	[]string{"source", "result"},
)

// StorageSyncTotal counts remote media storage operations.
// Label:
//   - result: "synced", "missing", "error" for lookups of avatars missing
//     locally; "mirrored", "mirror_error" for background uploads
var StorageSyncTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_storage_sync_total",
		Help:      "Total number of remote media storage operations, by result.",
	},
	[]string{"result"},
)

// ImageValidationFailuresTotal counts customer saves aborted by the avatar backend.
var ImageValidationFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_validation_failures_total",
		Help:      "Total number of customer saves rejected because the profile picture is not a valid image.",
	},
)

// ── Customer metrics ──────────────────────────────────────────────────────────

// CustomerUpdatesTotal counts customer update mutations.
// Label:
//   - result: "ok", "not_logged_in" or "error"
var CustomerUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customer_updates_total",
		Help:      "Total number of customer update mutations, by result.",
	},
	[]string{"result"},
)

// SessionsCreatedTotal counts successful logins.
var SessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of customer sessions created.",
	},
)
