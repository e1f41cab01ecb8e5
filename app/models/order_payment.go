package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodCard     = "CARD"
)

// OrderPayment is one payment applied against an order. Rows are immutable
// once created; corrections require compensating entries, not updates. The
// orders ledger guarantees that the sum of payments never exceeds the order
// net total.
type OrderPayment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index:idx_order_payments_order_paid,priority:1" json:"order_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(10);not null" json:"method" validate:"oneof=CASH TRANSFER CARD"`
	Note      string          `gorm:"type:varchar(255)" json:"note" validate:"max=255"`
	PaidAt    time.Time       `gorm:"not null;index:idx_order_payments_order_paid,priority:2" json:"paid_at"`
	CreatedBy uint            `gorm:"index" json:"created_by"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// IsValidPaymentMethod reports whether m is one of the accepted methods.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCard:
		return true
	default:
		return false
	}
}
