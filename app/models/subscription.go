package models

import "time"

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

const (
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
)

// Subscription tracks a tenant's billing lifecycle. Exactly one row per
// tenant; the row is created lazily with plan=free/status=trialing and is
// never hard-deleted.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	TenantID               uint       `gorm:"not null;uniqueIndex" json:"tenant_id"`
	Plan                   string     `gorm:"type:varchar(20);not null;default:'free';index" json:"plan"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'trialing';index" json:"status"`
	Provider               string     `gorm:"type:varchar(20);default:''" json:"provider"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);default:'';index" json:"provider_subscription_id"`
	ProviderPriceRef       string     `gorm:"type:varchar(191);default:''" json:"provider_price_ref"`
	CurrentPeriodStart     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	TrialEndsAt            *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	GraceUntil             *time.Time `gorm:"type:timestamp;default:null" json:"grace_until,omitempty"`
	CancelAtPeriodEnd      bool       `gorm:"default:false" json:"cancel_at_period_end"`
	Seats                  int        `gorm:"not null;default:1" json:"seats"`
	SeatLimit              int        `gorm:"not null;default:1" json:"seat_limit"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsValidSubscriptionStatus reports whether s belongs to the canonical status set.
func IsValidSubscriptionStatus(s string) bool {
	switch s {
	case SubscriptionStatusTrialing, SubscriptionStatusActive, SubscriptionStatusPastDue,
		SubscriptionStatusCanceled, SubscriptionStatusUnpaid, SubscriptionStatusIncomplete,
		SubscriptionStatusIncompleteExpired:
		return true
	default:
		return false
	}
}
