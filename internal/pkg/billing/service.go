package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/entitlements"
	"gorm.io/gorm"
)

// Service owns the tenant subscription ledger and the invoice manager: the
// lifecycle state machine, the atomic pay-for-month operation and webhook
// reconciliation. Every call takes an explicit tenant ID; the service never
// reads ambient request state.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// getOrCreateLocked loads the tenant's subscription under a row lock,
// creating the lazy default (free/trialing) when none exists yet. Must run
// inside a transaction-bound repository.
func (s *Service) getOrCreateLocked(r Repository, tenantID uint) (*models.Subscription, error) {
	sub, err := r.GetSubscriptionForUpdate(tenantID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	exists, err := r.TenantExists(tenantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("missing_tenant", fmt.Sprintf("tenant %d does not exist", tenantID))
	}

	trialEnd := s.now().AddDate(0, 0, TrialDays())
	sub = &models.Subscription{
		TenantID:    tenantID,
		Plan:        models.PlanFree,
		Status:      models.SubscriptionStatusTrialing,
		TrialEndsAt: &trialEnd,
		Seats:       1,
		SeatLimit:   entitlements.SeatLimit(entitlements.PlanFree),
	}
	if err := r.CreateSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetOrCreateSubscription returns the tenant's subscription, lazily creating
// the free/trialing default on first billing touch.
func (s *Service) GetOrCreateSubscription(ctx context.Context, tenantID uint) (*models.Subscription, error) {
	_ = ctx
	if tenantID == 0 {
		return nil, apperr.Validation("missing_tenant_id", "tenant_id is required")
	}

	var out *models.Subscription
	err := s.repo.Transaction(func(r Repository) error {
		sub, err := s.getOrCreateLocked(r, tenantID)
		if err != nil {
			return err
		}
		out = sub
		return nil
	})
	return out, err
}

// SetPlan is an administrative plan override. It changes the plan and the
// derived seat limit only; the lifecycle status is not touched.
func (s *Service) SetPlan(ctx context.Context, tenantID uint, plan string) (*models.Subscription, error) {
	_ = ctx
	if tenantID == 0 {
		return nil, apperr.Validation("missing_tenant_id", "tenant_id is required")
	}
	p := strings.ToLower(strings.TrimSpace(plan))
	if p != models.PlanFree && p != models.PlanPro {
		return nil, apperr.Validation("unknown_plan", fmt.Sprintf("unknown plan %q", plan))
	}

	var out *models.Subscription
	err := s.repo.Transaction(func(r Repository) error {
		sub, err := s.getOrCreateLocked(r, tenantID)
		if err != nil {
			return err
		}
		sub.Plan = p
		sub.SeatLimit = entitlements.SeatLimit(entitlements.Plan(p))
		if err := r.SaveSubscription(sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	return out, err
}

// Transition applies one lifecycle event to the tenant's subscription and
// persists the result atomically.
func (s *Service) Transition(ctx context.Context, tenantID uint, ev Event) (*models.Subscription, error) {
	_ = ctx
	if tenantID == 0 {
		return nil, apperr.Validation("missing_tenant_id", "tenant_id is required")
	}

	var out *models.Subscription
	err := s.repo.Transaction(func(r Repository) error {
		sub, err := s.getOrCreateLocked(r, tenantID)
		if err != nil {
			return err
		}
		if err := applyEvent(sub, ev, s.now(), GraceDays()); err != nil {
			return err
		}
		if err := r.SaveSubscription(sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	return out, err
}

// PayForMonth records a successful manual payment for one calendar month:
// idempotency check, paid invoice creation and subscription activation happen
// in a single transaction. A month that already has a paid invoice fails with
// an already_paid conflict and changes nothing.
func (s *Service) PayForMonth(ctx context.Context, tenantID uint, year, month int) (*PayForMonthResult, error) {
	return s.payForMonth(ctx, tenantID, year, month, models.BillingProviderManual, "")
}

func (s *Service) payForMonth(ctx context.Context, tenantID uint, year, month int, provider, rawPayload string) (*PayForMonthResult, error) {
	_ = ctx
	if tenantID == 0 {
		return nil, apperr.Validation("missing_tenant_id", "tenant_id is required")
	}
	if month < 1 || month > 12 || year < 2000 || year > 2200 {
		return nil, apperr.Validation("invalid_year_month", fmt.Sprintf("invalid year/month %d-%d", year, month))
	}

	periodStart, periodEnd := MonthBounds(year, month)
	now := s.now()

	var out PayForMonthResult
	err := s.repo.Transaction(func(r Repository) error {
		sub, err := s.getOrCreateLocked(r, tenantID)
		if err != nil {
			return err
		}

		paid, err := r.HasPaidInvoiceInRange(tenantID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if paid {
			return apperr.Conflict("already_paid",
				fmt.Sprintf("tenant %d already has a paid invoice for %04d-%02d", tenantID, year, month))
		}

		paidAt := now
		dueAt := periodEnd
		inv := &models.Invoice{
			TenantID:       tenantID,
			SubscriptionID: sub.ID,
			Status:         models.InvoiceStatusPaid,
			Amount:         ProMonthlyPrice(),
			Currency:       Currency(),
			Provider:       provider,
			PaidAt:         &paidAt,
			DueAt:          &dueAt,
			RawPayloadJSON: rawPayload,
		}
		if err := r.CreateInvoice(inv); err != nil {
			return err
		}

		sub.Status = models.SubscriptionStatusActive
		sub.TrialEndsAt = nil
		sub.GraceUntil = nil
		sub.CurrentPeriodStart = &periodStart
		sub.CurrentPeriodEnd = &periodEnd
		if err := r.SaveSubscription(sub); err != nil {
			return err
		}

		out.Subscription = *sub
		out.Invoice = *inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInvoices returns the tenant's invoices ordered by creation time,
// newest first.
func (s *Service) ListInvoices(ctx context.Context, tenantID uint, limit int) ([]models.Invoice, error) {
	_ = ctx
	if tenantID == 0 {
		return nil, apperr.Validation("missing_tenant_id", "tenant_id is required")
	}
	return s.repo.ListInvoices(tenantID, limit)
}

// Summary builds the admin read model: the subscription row, its effective
// status at this instant and the recent invoices.
func (s *Service) Summary(ctx context.Context, tenantID uint, invoiceLimit int) (*SubscriptionSummary, error) {
	sub, err := s.GetOrCreateSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repo.ListInvoices(tenantID, invoiceLimit)
	if err != nil {
		return nil, err
	}
	return &SubscriptionSummary{
		Subscription: *sub,
		Status:       EffectiveStatus(sub, s.now()),
		Invoices:     invoices,
	}, nil
}

// SyncFromSnapshot upserts subscription fields from a provider snapshot. The
// raw provider status is mapped onto the canonical set; a price ref without
// an active plan mapping leaves the plan untouched and only logs.
func (s *Service) SyncFromSnapshot(ctx context.Context, snap SubscriptionSnapshot) (*models.Subscription, error) {
	_ = ctx
	if snap.TenantID == 0 {
		return nil, apperr.Validation("missing_tenant_id", "tenant_id is required")
	}
	provider := strings.ToLower(strings.TrimSpace(snap.Provider))
	if provider == "" {
		return nil, apperr.Validation("missing_provider", "provider is required")
	}

	var out *models.Subscription
	err := s.repo.Transaction(func(r Repository) error {
		sub, err := s.getOrCreateLocked(r, snap.TenantID)
		if err != nil {
			return err
		}

		sub.Status = MapExternalStatus(snap.Status)
		switch sub.Status {
		case models.SubscriptionStatusPastDue:
			// A snapshot can push a tenant into past_due without a local
			// payment_failed event; the grace window still has to open or
			// grace expiry would never fire for it.
			if sub.GraceUntil == nil {
				grace := s.now().AddDate(0, 0, GraceDays())
				sub.GraceUntil = &grace
			}
		case models.SubscriptionStatusActive:
			sub.GraceUntil = nil
		}
		sub.Provider = provider
		if v := strings.TrimSpace(snap.ProviderSubscriptionID); v != "" {
			sub.ProviderSubscriptionID = v
		}
		sub.CancelAtPeriodEnd = snap.CancelAtPeriodEnd
		if snap.CurrentPeriodEnd != nil {
			sub.CurrentPeriodEnd = snap.CurrentPeriodEnd
		}

		if ref := strings.TrimSpace(snap.PriceRef); ref != "" {
			sub.ProviderPriceRef = ref
			m, err := r.FindActivePlanMapping(provider, ref)
			switch {
			case err == nil:
				sub.Plan = string(entitlements.NormalizePlan(m.InternalPlan))
				sub.SeatLimit = entitlements.SeatLimit(entitlements.Plan(sub.Plan))
			case errors.Is(err, gorm.ErrRecordNotFound):
				log.Printf("billing: no plan mapping for provider=%s price_ref=%s, keeping plan %s", provider, ref, sub.Plan)
			default:
				return err
			}
		}

		if err := r.SaveSubscription(sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	return out, err
}

// RecordWebhookEvent persists webhook payloads idempotently. Events with no
// provider event ID are keyed by a payload hash instead.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, apperr.Validation("missing_provider", "provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}
	if !in.SignatureValid {
		// Unverified deliveries are stored for audit only. They must not
		// claim the real idempotency key, or a later correctly signed retry
		// of the same event ID would be swallowed as a duplicate.
		eventID = "unverified:" + eventID
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// NeedsProcessing reports whether a stored webhook event still has work
// pending: it was never marked processed, or its last attempt failed. A
// duplicate delivery for such an event is re-run instead of acknowledged.
func NeedsProcessing(ev *models.WebhookEvent) bool {
	return ev.ProcessedAt == nil || ev.ProcessingError != ""
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return apperr.Validation("missing_webhook_event_id", "webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// ResolveTenantByCustomerRef maps a provider customer reference to the local
// tenant. Unlinked references return a not_found error the webhook handler
// acknowledges without failing the delivery.
func (s *Service) ResolveTenantByCustomerRef(ctx context.Context, provider, customerRef string) (*models.Tenant, error) {
	_ = ctx
	ref := strings.TrimSpace(customerRef)
	if ref == "" {
		return nil, apperr.Validation("missing_customer_ref", "customer_ref is required")
	}
	t, err := s.repo.GetTenantByProviderRef(provider, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("unlinked_customer_ref", fmt.Sprintf("no tenant linked to customer ref %q", ref))
		}
		return nil, err
	}
	return t, nil
}

// ProcessWebhookEvent dispatches one parsed, signature-verified event to the
// ledger. Duplicate-month conflicts from retried payment events are treated
// as success.
func (s *Service) ProcessWebhookEvent(ctx context.Context, tenantID uint, ev *WebhookEvent) error {
	switch ev.Kind {
	case EventKindCheckoutCompleted:
		now := s.now()
		if _, err := s.payForMonth(ctx, tenantID, now.Year(), int(now.Month()), models.BillingProviderStripe, string(ev.Raw)); err != nil {
			if !apperr.IsConflict(err) {
				return err
			}
			log.Printf("billing: checkout event for tenant %d hit already-paid guard, acknowledging", tenantID)
		}
		if ev.Snapshot != nil {
			_, err := s.SyncFromSnapshot(ctx, SubscriptionSnapshot{
				TenantID:               tenantID,
				Provider:               models.BillingProviderStripe,
				ProviderSubscriptionID: ev.Snapshot.ID,
				Status:                 ev.Snapshot.Status,
				PriceRef:               ev.Snapshot.PriceRef,
				CurrentPeriodEnd:       ev.Snapshot.PeriodEnd(),
				CancelAtPeriodEnd:      ev.Snapshot.CancelAtPeriodEnd,
				RawPayloadJSON:         string(ev.Raw),
			})
			return err
		}
		return nil

	case EventKindSubscriptionUpdated:
		_, err := s.SyncFromSnapshot(ctx, SubscriptionSnapshot{
			TenantID:               tenantID,
			Provider:               models.BillingProviderStripe,
			ProviderSubscriptionID: ev.Snapshot.ID,
			Status:                 ev.Snapshot.Status,
			PriceRef:               ev.Snapshot.PriceRef,
			CurrentPeriodEnd:       ev.Snapshot.PeriodEnd(),
			CancelAtPeriodEnd:      ev.Snapshot.CancelAtPeriodEnd,
			RawPayloadJSON:         string(ev.Raw),
		})
		return err

	case EventKindSubscriptionDeleted:
		if _, err := s.Transition(ctx, tenantID, EventCancelNow); err != nil {
			// Already-canceled subscriptions reject the transition; a retried
			// delete event is not a failure.
			if !apperr.IsConflict(err) {
				return err
			}
		}
		return nil

	default:
		// Unknown kinds are acknowledged, never an error.
		return nil
	}
}

// RunPeriodSweep persists the lazy lifecycle transitions whose deadlines have
// passed: elapsed trials, crossed period boundaries with a pending
// cancellation, and expired grace windows. Returns the number of
// subscriptions transitioned.
func (s *Service) RunPeriodSweep(ctx context.Context, limit int) (int, error) {
	_ = ctx
	now := s.now()
	candidates, err := s.repo.ListSweepCandidates(now, limit)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, c := range candidates {
		err := s.repo.Transaction(func(r Repository) error {
			sub, err := r.GetSubscriptionForUpdate(c.TenantID)
			if err != nil {
				return err
			}

			var ev Event
			switch {
			case sub.Status == models.SubscriptionStatusTrialing && sub.TrialEndsAt != nil && now.After(*sub.TrialEndsAt):
				ev = EventTrialExpired
			case sub.Status == models.SubscriptionStatusActive && sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd != nil && now.After(*sub.CurrentPeriodEnd):
				ev = EventPeriodElapsed
			case sub.Status == models.SubscriptionStatusPastDue && sub.GraceUntil != nil && now.After(*sub.GraceUntil):
				ev = EventGraceExpired
			default:
				// Another writer got here first.
				return nil
			}

			if err := applyEvent(sub, ev, now, GraceDays()); err != nil {
				return err
			}
			if err := r.SaveSubscription(sub); err != nil {
				return err
			}
			swept++
			return nil
		})
		if err != nil {
			log.Printf("billing: sweep failed for tenant %d: %v", c.TenantID, err)
		}
	}
	return swept, nil
}
