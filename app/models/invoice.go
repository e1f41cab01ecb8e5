package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusOpen     = "open"
	InvoiceStatusPaid     = "paid"
	InvoiceStatusFailed   = "failed"
	InvoiceStatusVoided   = "voided"
	InvoiceStatusRefunded = "refunded"
)

// Invoice records an amount due/paid for one billing period of a tenant
// subscription. Rows are append-mostly: status may move to voided/refunded
// but the record is never removed. At most one paid invoice may exist per
// (tenant, calendar month of due_at); the billing service enforces this
// inside the payment transaction.
type Invoice struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	TenantID          uint            `gorm:"not null;index:idx_invoices_tenant_due,priority:1" json:"tenant_id"`
	SubscriptionID    uint            `gorm:"not null;index" json:"subscription_id"`
	Status            string          `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'TRY'" json:"currency"`
	Provider          string          `gorm:"type:varchar(20);default:''" json:"provider"`
	ProviderInvoiceID string          `gorm:"type:varchar(191);default:'';index" json:"provider_invoice_id"`
	PaidAt            *time.Time      `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	DueAt             *time.Time      `gorm:"type:timestamp;default:null;index:idx_invoices_tenant_due,priority:2" json:"due_at,omitempty"`
	RawPayloadJSON    string          `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt         time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
