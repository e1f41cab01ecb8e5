package userbilling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/mail"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notifier delivers the human-in-the-loop payment request. Delivery is
// best-effort: failures are logged and never surfaced as billing failures.
type Notifier func(to, subject, body string) error

// Service is the lightweight per-user monthly billing track: an operator is
// asked to pay (notification only) and an admin later records the payment.
type Service struct {
	repo   Repository
	notify Notifier
	now    func() time.Time
}

// NewService creates a user billing service from an injected repository and
// notifier.
func NewService(repo Repository, notify Notifier) *Service {
	if notify == nil {
		notify = mail.SendMail
	}
	return &Service{repo: repo, notify: notify, now: time.Now}
}

// NewServiceFromDB creates a user billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), nil)
}

// RequestPayment notifies the user that the month is due. No Payment row is
// created; this is a request for an operator to act, not a charge.
func (s *Service) RequestPayment(ctx context.Context, userID uint, monthKey string) error {
	_ = ctx
	if userID == 0 {
		return apperr.Validation("missing_user_id", "user_id is required")
	}
	if !models.IsValidMonthKey(monthKey) {
		return apperr.Validation("invalid_month_key", fmt.Sprintf("month key %q is not YYYY-MM", monthKey))
	}

	user, err := s.repo.GetUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user_not_found", fmt.Sprintf("user %d does not exist", userID))
		}
		return err
	}

	subject := fmt.Sprintf("Payment due for %s", monthKey)
	body := fmt.Sprintf("Hello %s,<br><br>your payment for the period %s is due. Please settle it with your administrator.", user.Name, monthKey)
	if err := s.notify(user.Email, subject, body); err != nil {
		// Best-effort only; the request itself succeeded.
		log.Printf("userbilling: payment request mail to user %d failed: %v", userID, err)
	}
	return nil
}

// RecordPayment is the administrative action creating the Payment row.
// Duplicate (user, month key) submissions are rejected with a conflict.
func (s *Service) RecordPayment(ctx context.Context, userID uint, monthKey string, amount decimal.Decimal) (*models.Payment, error) {
	_ = ctx
	if userID == 0 {
		return nil, apperr.Validation("missing_user_id", "user_id is required")
	}
	if !models.IsValidMonthKey(monthKey) {
		return nil, apperr.Validation("invalid_month_key", fmt.Sprintf("month key %q is not YYYY-MM", monthKey))
	}
	if !amount.IsPositive() {
		return nil, apperr.Validation("invalid_amount", "amount must be positive")
	}

	if _, err := s.repo.GetUser(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user_not_found", fmt.Sprintf("user %d does not exist", userID))
		}
		return nil, err
	}

	payment := &models.Payment{
		UserID:   userID,
		MonthKey: monthKey,
		Amount:   amount.Round(2),
		Status:   models.UserPaymentStatusPaid,
		PaidAt:   s.now(),
	}
	created, err := s.repo.CreatePaymentIfNotExists(payment)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, apperr.Conflict("duplicate_month_payment",
			fmt.Sprintf("user %d already has a payment for %s", userID, monthKey))
	}
	return payment, nil
}

// ListPayments returns the user's monthly payments, newest month first.
func (s *Service) ListPayments(ctx context.Context, userID uint) ([]models.Payment, error) {
	_ = ctx
	if userID == 0 {
		return nil, apperr.Validation("missing_user_id", "user_id is required")
	}
	return s.repo.ListPayments(userID)
}

// NextDue returns the user's next due date. Unset due dates default to one
// calendar month after the start of the current month.
func NextDue(user *models.User, now time.Time) time.Time {
	if user != nil && user.NextDueAt != nil {
		return *user.NextDueAt
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return monthStart.AddDate(0, 1, 0)
}

// DaysLeft returns the number of whole days from now until due, negative when
// the due date has passed.
func DaysLeft(now, due time.Time) int {
	return int(due.Sub(now).Hours() / 24)
}
