package billing

import (
	"strings"

	"github.com/atolyesoft/DrapeDesk/app/models"
)

// MapExternalStatus folds a provider status string onto the canonical
// subscription status set. Providers introduce new vocabulary over time, so
// anything unrecognized maps to incomplete instead of failing.
func MapExternalStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return models.SubscriptionStatusActive
	case "trialing", "in_trial":
		return models.SubscriptionStatusTrialing
	case "past_due", "pastdue":
		return models.SubscriptionStatusPastDue
	case "canceled", "cancelled":
		return models.SubscriptionStatusCanceled
	case "unpaid":
		return models.SubscriptionStatusUnpaid
	case "incomplete":
		return models.SubscriptionStatusIncomplete
	case "incomplete_expired":
		return models.SubscriptionStatusIncompleteExpired
	default:
		return models.SubscriptionStatusIncomplete
	}
}
