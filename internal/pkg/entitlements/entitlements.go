package entitlements

import (
	"strings"

	"github.com/atolyesoft/DrapeDesk/app/models"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// NormalizePlan folds arbitrary plan strings onto the known plan set.
// Anything unrecognized is treated as free.
func NormalizePlan(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanPro):
		return PlanPro
	default:
		return PlanFree
	}
}

// PlanRank orders plans for best-plan selection. Higher wins.
func PlanRank(plan Plan) int {
	switch plan {
	case PlanPro:
		return 1
	default:
		return 0
	}
}

// SeatLimit returns the number of operator seats a plan entitles a tenant to.
func SeatLimit(plan Plan) int {
	switch plan {
	case PlanPro:
		return 10
	default:
		return 1
	}
}

// IsEntitlingStatus reports whether a subscription in this status still
// grants plan features. past_due keeps entitlements during the grace window.
func IsEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing, models.SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}
