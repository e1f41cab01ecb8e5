package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TENANT_STATUS_ACTIVE   = "active"
	TENANT_STATUS_DISABLED = "disabled"
)

// Tenant is the billable organizational unit (a shop/workspace). Each tenant
// owns at most one Subscription, created lazily on the first billing touch.
type Tenant struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	UUID                string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Name                string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Slug                string         `gorm:"type:varchar(150);uniqueIndex" json:"slug" validate:"required,min=2,max=150"`
	ContactEmail        string         `gorm:"type:varchar(200)" json:"contact_email" validate:"omitempty,email"`
	OwnerUserID         uint           `gorm:"index" json:"owner_user_id"`
	ProviderCustomerRef string         `gorm:"type:varchar(191);index" json:"provider_customer_ref"`
	Status              string         `gorm:"type:varchar(20);default:'active'" json:"status" validate:"oneof=active disabled"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}
