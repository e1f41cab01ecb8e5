package controllers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/billing"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/cache"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/database"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/env"
	metrics "github.com/atolyesoft/DrapeDesk/internal/pkg/metrics/counter"
	"github.com/gofiber/fiber/v2"
)

const summaryCacheTTL = 60 * time.Second

func summaryCacheKey(tenantID uint) string {
	return fmt.Sprintf("billing:tenant:%d:summary", tenantID)
}

func invalidateSummaryCache(tenantID uint) {
	if err := cache.Delete(summaryCacheKey(tenantID)); err != nil {
		log.Printf("billing: summary cache invalidation for tenant %d failed: %v", tenantID, err)
	}
}

// HandleBillingWebhook is the signed provider webhook intake. The raw event
// is persisted idempotently first; only verified, first-seen events reach the
// ledger.
func HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Webhook-Signature"))
	secret := env.GetEnv("BILLING_WEBHOOK_SECRET", "")

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	event, parseErr := billing.ParseWebhookEvent(rawBody)
	eventID := ""
	eventType := ""
	if parseErr == nil {
		eventID = event.EventID
		eventType = string(event.Kind)
	}

	// Unverified deliveries are rejected before anything else happens. The
	// audit row they leave behind is keyed apart from verified events, so a
	// correctly signed retry of the same event ID is not a duplicate.
	if !billing.VerifyWebhookSignature(rawBody, signature, secret) {
		_, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
			Provider:        models.BillingProviderStripe,
			ProviderEventID: eventID,
			EventType:       eventType,
			PayloadJSON:     string(rawBody),
			SignatureValid:  false,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
		}
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, fmt.Errorf("invalid webhook signature"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	// A duplicate delivery only short-circuits when the stored event already
	// processed cleanly. A retry after a processing failure runs again.
	if !created && !billing.NeedsProcessing(stored) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if parseErr != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, parseErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if event.Kind == billing.EventKindUnknown {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	tenant, err := svc.ResolveTenantByCustomerRef(ctx, models.BillingProviderStripe, event.CustomerRef)
	if err != nil {
		if apperr.IsNotFound(err) {
			_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
		}
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "tenant_lookup_failed"})
	}

	processErr := svc.ProcessWebhookEvent(ctx, tenant.ID, event)
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, processErr)
	if processErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_processing_failed"})
	}

	invalidateSummaryCache(tenant.ID)
	if err := metrics.AddWebhookProcessed(); err != nil {
		log.Printf("billing: webhook counter increment failed: %v", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// PayForMonthRequest is the admin pay-for-month input.
type PayForMonthRequest struct {
	Year  int `json:"year" validate:"required,min=2000,max=2200"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// HandlePayForMonth is the admin "pay for month" action: one paid invoice per
// tenant and calendar month, subscription activated in the same transaction.
func HandlePayForMonth(c *fiber.Ctx) error {
	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req PayForMonthRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_year_month", err.Error()))
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := svc.PayForMonth(ctx, tenantID, req.Year, req.Month)
	if err != nil {
		return respondError(c, err)
	}
	invalidateSummaryCache(tenantID)

	invoices, err := svc.ListInvoices(ctx, tenantID, 12)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"subscription": result.Subscription,
		"invoice":      result.Invoice,
		"invoices":     invoices,
	})
}

// HandleGetSubscription serves the tenant's subscription summary, cached in
// Redis for a short window and invalidated on every ledger write.
func HandleGetSubscription(c *fiber.Ctx) error {
	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var cached billing.SubscriptionSummary
	if err := cache.GetJSON(summaryCacheKey(tenantID), &cached); err == nil {
		return c.Status(fiber.StatusOK).JSON(cached)
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	summary, err := svc.Summary(ctx, tenantID, 12)
	if err != nil {
		return respondError(c, err)
	}
	if err := cache.SetJSON(summaryCacheKey(tenantID), summary, summaryCacheTTL); err != nil {
		log.Printf("billing: summary cache write for tenant %d failed: %v", tenantID, err)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// SetPlanRequest is the admin plan override input.
type SetPlanRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free pro"`
}

// HandleSetPlan is the administrative plan override. It never touches the
// lifecycle status.
func HandleSetPlan(c *fiber.Ctx) error {
	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req SetPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("unknown_plan", err.Error()))
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sub, err := svc.SetPlan(ctx, tenantID, req.Plan)
	if err != nil {
		return respondError(c, err)
	}
	invalidateSummaryCache(tenantID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"subscription": sub})
}

// CancelSubscriptionRequest selects between immediate and period-end cancel.
type CancelSubscriptionRequest struct {
	AtPeriodEnd bool `json:"at_period_end"`
}

// HandleCancelSubscription cancels a subscription now or flags it for
// cancellation at the period boundary.
func HandleCancelSubscription(c *fiber.Ctx) error {
	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req CancelSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}

	ev := billing.EventCancelNow
	if req.AtPeriodEnd {
		ev = billing.EventCancelAtPeriodEnd
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sub, err := svc.Transition(ctx, tenantID, ev)
	if err != nil {
		return respondError(c, err)
	}
	invalidateSummaryCache(tenantID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"subscription": sub})
}

// TransitionSubscriptionRequest names a raw lifecycle event to apply.
type TransitionSubscriptionRequest struct {
	Event string `json:"event" validate:"required"`
}

// HandleTransitionSubscription applies a named lifecycle event to a tenant's
// subscription. It is the low-level admin escape hatch behind the cancel and
// resume endpoints; the state machine still rejects transitions it does not
// allow.
func HandleTransitionSubscription(c *fiber.Ctx) error {
	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req TransitionSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("missing_event", err.Error()))
	}
	ev, err := billing.ParseEventName(req.Event)
	if err != nil {
		return respondError(c, err)
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sub, err := svc.Transition(ctx, tenantID, ev)
	if err != nil {
		return respondError(c, err)
	}
	invalidateSummaryCache(tenantID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"subscription": sub})
}

// HandleResumeSubscription reactivates a canceled subscription.
func HandleResumeSubscription(c *fiber.Ctx) error {
	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sub, err := svc.Transition(ctx, tenantID, billing.EventResume)
	if err != nil {
		return respondError(c, err)
	}
	invalidateSummaryCache(tenantID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"subscription": sub})
}
