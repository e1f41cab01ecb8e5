package models

import "time"

// PlanMapping maps a provider price identifier to an internal plan. Webhook
// snapshots that carry an unmapped price ref leave the subscription plan
// untouched (fail-open), so missing rows here are never an error.
type PlanMapping struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Provider         string    `gorm:"type:varchar(20);not null;index:ux_plan_mappings_ref,unique,priority:1" json:"provider"`
	ProviderPriceRef string    `gorm:"type:varchar(191);not null;index:ux_plan_mappings_ref,unique,priority:2" json:"provider_price_ref"`
	InternalPlan     string    `gorm:"type:varchar(20);not null;default:'free'" json:"internal_plan"`
	IsActive         bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
