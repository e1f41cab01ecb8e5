package models

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

const (
	UserPaymentStatusPaid    = "paid"
	UserPaymentStatusPending = "pending"
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Payment is the lightweight per-user monthly billing track, independent of
// the tenant subscription machinery. One row per (user, month key); the
// unique index rejects double-submitted admin recordings.
type Payment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index:ux_payments_user_month,unique,priority:1" json:"user_id"`
	MonthKey  string          `gorm:"type:varchar(7);not null;index:ux_payments_user_month,unique,priority:2" json:"month_key"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status    string          `gorm:"type:varchar(20);not null;default:'paid'" json:"status"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// IsValidMonthKey reports whether key has the canonical YYYY-MM form.
func IsValidMonthKey(key string) bool {
	return monthKeyPattern.MatchString(key)
}
