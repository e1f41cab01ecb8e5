package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ORDER_STATUS_DRAFT     = "draft"
	ORDER_STATUS_CONFIRMED = "confirmed"
	ORDER_STATUS_PRODUCED  = "produced"
	ORDER_STATUS_DELIVERED = "delivered"
	ORDER_STATUS_CANCELED  = "canceled"
)

// Order is a customer order of a tenant. NetTotal is always recomputed
// transactionally from the item and extra rows, never trusted from a caller
// and never accumulated incrementally.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UUID          string          `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	TenantID      uint            `gorm:"not null;index" json:"tenant_id"`
	CustomerName  string          `gorm:"type:varchar(150)" json:"customer_name" validate:"max=150"`
	CustomerPhone string          `gorm:"type:varchar(30)" json:"customer_phone" validate:"max=30"`
	Status        string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	NetTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"net_total"`
	Note          string          `gorm:"type:text" json:"note"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	Items  []OrderItem  `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Extras []OrderExtra `gorm:"foreignKey:OrderID" json:"extras,omitempty"`
}

// OrderItem is one curtain/fabric line of an order. Width and height are in
// centimeters; FileDensity is the pleat multiplier applied to the fabric
// width. Subtotal is derived, see ComputeSubtotal.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	Description string          `gorm:"type:varchar(255)" json:"description" validate:"max=255"`
	Qty         int             `gorm:"not null;default:1" json:"qty" validate:"required,min=1"`
	WidthCM     int             `gorm:"not null" json:"width_cm" validate:"required,min=1"`
	HeightCM    int             `gorm:"not null" json:"height_cm" validate:"min=0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	FileDensity decimal.Decimal `gorm:"type:decimal(6,2);not null;default:1" json:"file_density"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderExtra is a flat-priced extra line (sewing, mounting, accessories).
type OrderExtra struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	Label     string          `gorm:"type:varchar(150)" json:"label" validate:"max=150"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

var cmPerMeter = decimal.NewFromInt(100)

// ComputeSubtotal derives the canonical line subtotal:
// unitPrice * qty * (widthCM / 100) * fileDensity, rounded to 2 decimals.
// Callers must never persist a client-supplied subtotal.
func (it *OrderItem) ComputeSubtotal() decimal.Decimal {
	width := decimal.NewFromInt(int64(it.WidthCM)).Div(cmPerMeter)
	return it.UnitPrice.
		Mul(decimal.NewFromInt(int64(it.Qty))).
		Mul(width).
		Mul(it.FileDensity).
		Round(2)
}
