package billing

import (
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/env"
	"github.com/shopspring/decimal"
)

// SubscriptionSnapshot is the provider-agnostic shape used when syncing
// external subscription state into the local ledger. Status carries the raw
// provider vocabulary; it is mapped onto the canonical set during sync.
type SubscriptionSnapshot struct {
	TenantID               uint
	Provider               string
	ProviderSubscriptionID string
	Status                 string
	PriceRef               string
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
	RawPayloadJSON         string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// PayForMonthResult is returned by the atomic pay-for-month operation.
type PayForMonthResult struct {
	Subscription models.Subscription `json:"subscription"`
	Invoice      models.Invoice      `json:"invoice"`
}

// SubscriptionSummary is the read model served to admin callers. Status is
// the effective status (stored status adjusted for elapsed trial, grace and
// period boundaries).
type SubscriptionSummary struct {
	Subscription models.Subscription `json:"subscription"`
	Status       string              `json:"status"`
	Invoices     []models.Invoice    `json:"invoices"`
}

// ProMonthlyPrice returns the canonical monthly price charged for the pro
// plan, configured via BILLING_PRO_MONTHLY_PRICE.
func ProMonthlyPrice() decimal.Decimal {
	raw := env.GetEnv("BILLING_PRO_MONTHLY_PRICE", "499.00")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NewFromInt(499)
	}
	return d
}

// Currency returns the ISO currency code invoices are issued in.
func Currency() string {
	return env.GetEnv("BILLING_CURRENCY", "TRY")
}

// TrialDays returns the trial window granted to newly created subscriptions.
func TrialDays() int {
	return env.GetEnvInt("BILLING_TRIAL_DAYS", 14)
}

// GraceDays returns the window after a failed payment before forced
// cancellation.
func GraceDays() int {
	return env.GetEnvInt("BILLING_GRACE_DAYS", 7)
}

// MonthBounds returns the first and last instant of the given calendar month
// in UTC. The last instant is 23:59:59.999 of the final day.
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}
