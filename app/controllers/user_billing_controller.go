package controllers

import (
	"context"
	"log"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/repository"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/database"
	metrics "github.com/atolyesoft/DrapeDesk/internal/pkg/metrics/counter"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/userbilling"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// UserBillingRequest carries the month key for both the request and record
// actions.
type UserBillingRequest struct {
	MonthKey string `json:"month_key" validate:"required"`
	Amount   string `json:"amount"`
}

// HandleRequestUserPayment asks the user to pay for a month. Mail delivery is
// best-effort; the endpoint succeeds as long as the user exists.
func HandleRequestUserPayment(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req UserBillingRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("missing_month_key", err.Error()))
	}

	svc := userbilling.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := svc.RequestPayment(ctx, userID, req.MonthKey); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleRecordUserPayment records a user's monthly payment. One payment per
// user and month; duplicates are rejected.
func HandleRecordUserPayment(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req UserBillingRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("missing_month_key", err.Error()))
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return respondError(c, apperr.Validation("invalid_amount", "amount must be a decimal string"))
	}

	svc := userbilling.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	payment, err := svc.RecordPayment(ctx, userID, req.MonthKey, amount)
	if err != nil {
		return respondError(c, err)
	}
	if err := metrics.AddUserPayment(); err != nil {
		log.Printf("userbilling: payment counter increment failed: %v", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": payment})
}

// HandleListUserPayments returns the user's monthly payments plus the derived
// next due date.
func HandleListUserPayments(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByID(userID)
	if err != nil {
		return respondError(c, err)
	}

	svc := userbilling.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	payments, err := svc.ListPayments(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	due := userbilling.NextDue(user, now)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"payments":    payments,
		"next_due_at": due,
		"days_left":   userbilling.DaysLeft(now, due),
	})
}
