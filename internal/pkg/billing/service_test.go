package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository for service tests. Transactions are
// flat: the fake has no rollback, tests only exercise the success and
// conflict paths where nothing was written before the failure.
type fakeRepo struct {
	tenants       map[uint]*models.Tenant
	subs          map[uint]*models.Subscription
	invoices      []models.Invoice
	mappings      map[string]*models.PlanMapping
	webhookEvents map[string]*models.WebhookEvent
	nextID        uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tenants:       make(map[uint]*models.Tenant),
		subs:          make(map[uint]*models.Subscription),
		mappings:      make(map[string]*models.PlanMapping),
		webhookEvents: make(map[string]*models.WebhookEvent),
	}
}

func (f *fakeRepo) addTenant(id uint, customerRef string) {
	f.tenants[id] = &models.Tenant{ID: id, Name: "Test Tenant", Slug: "test-tenant", ProviderCustomerRef: customerRef}
}

func (f *fakeRepo) Transaction(fn func(Repository) error) error { return fn(f) }

func (f *fakeRepo) TenantExists(tenantID uint) (bool, error) {
	_, ok := f.tenants[tenantID]
	return ok, nil
}

func (f *fakeRepo) GetTenantByProviderRef(provider, customerRef string) (*models.Tenant, error) {
	for _, t := range f.tenants {
		if t.ProviderCustomerRef == customerRef {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetSubscription(tenantID uint) (*models.Subscription, error) {
	sub, ok := f.subs[tenantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeRepo) GetSubscriptionForUpdate(tenantID uint) (*models.Subscription, error) {
	return f.GetSubscription(tenantID)
}

func (f *fakeRepo) CreateSubscription(sub *models.Subscription) error {
	f.nextID++
	sub.ID = f.nextID
	cp := *sub
	f.subs[sub.TenantID] = &cp
	return nil
}

func (f *fakeRepo) SaveSubscription(sub *models.Subscription) error {
	cp := *sub
	f.subs[sub.TenantID] = &cp
	return nil
}

func (f *fakeRepo) ListSweepCandidates(now time.Time, limit int) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range f.subs {
		switch {
		case sub.Status == models.SubscriptionStatusTrialing && sub.TrialEndsAt != nil && now.After(*sub.TrialEndsAt):
		case sub.Status == models.SubscriptionStatusActive && sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd != nil && now.After(*sub.CurrentPeriodEnd):
		case sub.Status == models.SubscriptionStatusPastDue && sub.GraceUntil != nil && now.After(*sub.GraceUntil):
		default:
			continue
		}
		out = append(out, *sub)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) HasPaidInvoiceInRange(tenantID uint, start, end time.Time) (bool, error) {
	for _, inv := range f.invoices {
		if inv.TenantID != tenantID || inv.Status != models.InvoiceStatusPaid || inv.DueAt == nil {
			continue
		}
		if !inv.DueAt.Before(start) && !inv.DueAt.After(end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateInvoice(inv *models.Invoice) error {
	f.nextID++
	inv.ID = f.nextID
	f.invoices = append(f.invoices, *inv)
	return nil
}

func (f *fakeRepo) ListInvoices(tenantID uint, limit int) ([]models.Invoice, error) {
	var out []models.Invoice
	for i := len(f.invoices) - 1; i >= 0; i-- {
		if f.invoices[i].TenantID == tenantID {
			out = append(out, f.invoices[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) FindActivePlanMapping(provider, priceRef string) (*models.PlanMapping, error) {
	m, ok := f.mappings[provider+"|"+priceRef]
	if !ok || !m.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "|" + event.ProviderEventID
	if existing, ok := f.webhookEvents[key]; ok {
		return false, existing, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.webhookEvents[key] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, ev := range f.webhookEvents {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func newTestService(repo *fakeRepo) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return testNow }
	return s
}

func TestGetOrCreateSubscriptionLazyDefault(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "")
	svc := newTestService(repo)

	sub, err := svc.GetOrCreateSubscription(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Plan != models.PlanFree || sub.Status != models.SubscriptionStatusTrialing {
		t.Fatalf("default = %s/%s, want free/trialing", sub.Plan, sub.Status)
	}
	if sub.TrialEndsAt == nil || !sub.TrialEndsAt.Equal(testNow.AddDate(0, 0, 14)) {
		t.Fatalf("trial end = %v, want %v", sub.TrialEndsAt, testNow.AddDate(0, 0, 14))
	}
	if sub.SeatLimit != 1 {
		t.Fatalf("seat limit = %d, want 1", sub.SeatLimit)
	}

	// Second call returns the same row, no second creation.
	again, err := svc.GetOrCreateSubscription(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != sub.ID {
		t.Fatalf("expected one subscription per tenant, got IDs %d and %d", sub.ID, again.ID)
	}
}

func TestGetOrCreateSubscriptionMissingTenant(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.GetOrCreateSubscription(context.Background(), 99)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not_found for unknown tenant, got %v", err)
	}
}

func TestPayForMonth(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "")
	svc := newTestService(repo)

	res, err := svc.PayForMonth(context.Background(), 1, 2026, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Invoice.Status != models.InvoiceStatusPaid {
		t.Fatalf("invoice status = %q, want paid", res.Invoice.Status)
	}
	if res.Invoice.Provider != models.BillingProviderManual {
		t.Fatalf("invoice provider = %q, want manual", res.Invoice.Provider)
	}
	if !res.Invoice.Amount.Equal(ProMonthlyPrice()) {
		t.Fatalf("invoice amount = %s, want %s", res.Invoice.Amount, ProMonthlyPrice())
	}

	start, end := MonthBounds(2026, 3)
	if res.Invoice.DueAt == nil || !res.Invoice.DueAt.Equal(end) {
		t.Fatalf("due at = %v, want %v", res.Invoice.DueAt, end)
	}
	if res.Subscription.Status != models.SubscriptionStatusActive {
		t.Fatalf("subscription status = %q, want active", res.Subscription.Status)
	}
	if res.Subscription.TrialEndsAt != nil || res.Subscription.GraceUntil != nil {
		t.Fatalf("expected trial/grace windows to clear")
	}
	if res.Subscription.CurrentPeriodStart == nil || !res.Subscription.CurrentPeriodStart.Equal(start) {
		t.Fatalf("period start = %v, want %v", res.Subscription.CurrentPeriodStart, start)
	}
	if res.Subscription.CurrentPeriodEnd == nil || !res.Subscription.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("period end = %v, want %v", res.Subscription.CurrentPeriodEnd, end)
	}
}

func TestPayForMonthAlreadyPaid(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "")
	svc := newTestService(repo)

	if _, err := svc.PayForMonth(context.Background(), 1, 2026, 3); err != nil {
		t.Fatalf("first payment failed: %v", err)
	}

	_, err := svc.PayForMonth(context.Background(), 1, 2026, 3)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected already_paid conflict, got %v", err)
	}
	if apperr.ReasonOf(err) != "already_paid" {
		t.Fatalf("reason = %q, want already_paid", apperr.ReasonOf(err))
	}
	if len(repo.invoices) != 1 {
		t.Fatalf("expected exactly one invoice, got %d", len(repo.invoices))
	}

	// A different month is fine.
	if _, err := svc.PayForMonth(context.Background(), 1, 2026, 4); err != nil {
		t.Fatalf("payment for next month failed: %v", err)
	}
	if len(repo.invoices) != 2 {
		t.Fatalf("expected two invoices, got %d", len(repo.invoices))
	}
}

func TestPayForMonthValidation(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "")
	svc := newTestService(repo)

	for _, bad := range [][2]int{{2026, 0}, {2026, 13}, {1999, 5}, {2300, 5}} {
		_, err := svc.PayForMonth(context.Background(), 1, bad[0], bad[1])
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Fatalf("PayForMonth(%d, %d): expected validation error, got %v", bad[0], bad[1], err)
		}
	}
}

func TestSetPlan(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "")
	svc := newTestService(repo)

	sub, err := svc.SetPlan(context.Background(), 1, "pro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Plan != models.PlanPro || sub.SeatLimit != 10 {
		t.Fatalf("plan = %s seat_limit = %d, want pro/10", sub.Plan, sub.SeatLimit)
	}
	// Lifecycle status is untouched by a plan override.
	if sub.Status != models.SubscriptionStatusTrialing {
		t.Fatalf("status = %q, want trialing", sub.Status)
	}

	if _, err := svc.SetPlan(context.Background(), 1, "enterprise"); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("expected unknown plan to be rejected, got %v", err)
	}
}

func TestSyncFromSnapshotWithPlanMapping(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "cus_42")
	repo.mappings["stripe|price_pro_monthly"] = &models.PlanMapping{
		Provider: "stripe", ProviderPriceRef: "price_pro_monthly",
		InternalPlan: models.PlanPro, IsActive: true,
	}
	svc := newTestService(repo)

	end := testNow.AddDate(0, 1, 0)
	sub, err := svc.SyncFromSnapshot(context.Background(), SubscriptionSnapshot{
		TenantID:               1,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_7",
		Status:                 "active",
		PriceRef:               "price_pro_monthly",
		CurrentPeriodEnd:       &end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active", sub.Status)
	}
	if sub.Plan != models.PlanPro || sub.SeatLimit != 10 {
		t.Fatalf("plan = %s seat_limit = %d, want pro/10", sub.Plan, sub.SeatLimit)
	}
	if sub.ProviderSubscriptionID != "sub_7" {
		t.Fatalf("provider subscription id = %q", sub.ProviderSubscriptionID)
	}
}

func TestSyncFromSnapshotUnmappedPriceKeepsPlan(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "cus_42")
	svc := newTestService(repo)

	if _, err := svc.SetPlan(context.Background(), 1, "pro"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	sub, err := svc.SyncFromSnapshot(context.Background(), SubscriptionSnapshot{
		TenantID: 1,
		Provider: "stripe",
		Status:   "active",
		PriceRef: "price_nobody_mapped",
	})
	if err != nil {
		t.Fatalf("unmapped price must not fail the sync: %v", err)
	}
	if sub.Plan != models.PlanPro {
		t.Fatalf("plan = %q, want pro kept on unmapped price", sub.Plan)
	}
}

func TestSyncFromSnapshotPastDueOpensGraceWindow(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "cus_42")
	svc := newTestService(repo)

	sub, err := svc.SyncFromSnapshot(context.Background(), SubscriptionSnapshot{
		TenantID: 1,
		Provider: "stripe",
		Status:   "past_due",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != models.SubscriptionStatusPastDue {
		t.Fatalf("status = %q, want past_due", sub.Status)
	}
	wantGrace := testNow.AddDate(0, 0, GraceDays())
	if sub.GraceUntil == nil || !sub.GraceUntil.Equal(wantGrace) {
		t.Fatalf("grace_until = %v, want %v", sub.GraceUntil, wantGrace)
	}

	// A repeated past_due sync keeps the already running window.
	sub, err = svc.SyncFromSnapshot(context.Background(), SubscriptionSnapshot{
		TenantID: 1,
		Provider: "stripe",
		Status:   "past_due",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.GraceUntil == nil || !sub.GraceUntil.Equal(wantGrace) {
		t.Fatalf("grace_until moved to %v on repeat sync, want %v", sub.GraceUntil, wantGrace)
	}

	// Recovering to active closes the window.
	sub, err = svc.SyncFromSnapshot(context.Background(), SubscriptionSnapshot{
		TenantID: 1,
		Provider: "stripe",
		Status:   "active",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.GraceUntil != nil {
		t.Fatalf("grace_until = %v after recovery, want nil", sub.GraceUntil)
	}
}

func TestProcessWebhookEventCheckout(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "cus_42")
	svc := newTestService(repo)

	ev, err := ParseWebhookEvent([]byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {
			"customer_ref": "cus_42",
			"subscription": {"id": "sub_7", "status": "active", "price_ref": "price_x"}
		}
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if err := svc.ProcessWebhookEvent(context.Background(), 1, ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.invoices) != 1 {
		t.Fatalf("expected one invoice, got %d", len(repo.invoices))
	}
	if repo.invoices[0].Provider != models.BillingProviderStripe {
		t.Fatalf("invoice provider = %q, want stripe", repo.invoices[0].Provider)
	}

	// A retried delivery hits the already-paid guard and is acknowledged.
	if err := svc.ProcessWebhookEvent(context.Background(), 1, ev); err != nil {
		t.Fatalf("retried checkout must not fail: %v", err)
	}
	if len(repo.invoices) != 1 {
		t.Fatalf("retry created an invoice, got %d", len(repo.invoices))
	}
}

func TestProcessWebhookEventDeletedIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "cus_42")
	svc := newTestService(repo)

	ev, err := ParseWebhookEvent([]byte(`{
		"id": "evt_2",
		"type": "customer.subscription.deleted",
		"data": {
			"customer_ref": "cus_42",
			"subscription": {"id": "sub_7", "status": "canceled"}
		}
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if err := svc.ProcessWebhookEvent(context.Background(), 1, ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.subs[1].Status != models.SubscriptionStatusCanceled {
		t.Fatalf("status = %q, want canceled", repo.subs[1].Status)
	}

	// Retried delete hits the invalid-transition conflict and is acknowledged.
	if err := svc.ProcessWebhookEvent(context.Background(), 1, ev); err != nil {
		t.Fatalf("retried delete must not fail: %v", err)
	}
}

func TestProcessWebhookEventUnknownKind(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "cus_42")
	svc := newTestService(repo)

	ev := &WebhookEvent{Kind: EventKindUnknown}
	if err := svc.ProcessWebhookEvent(context.Background(), 1, ev); err != nil {
		t.Fatalf("unknown kinds must be acknowledged: %v", err)
	}
}

func TestRecordWebhookEventIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	in := WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "checkout.session.completed",
		PayloadJSON:     "{}",
		SignatureValid:  true,
	}
	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("first record: created=%v err=%v", created, err)
	}

	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected duplicate to report created=false")
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate returned a different row: %d vs %d", second.ID, first.ID)
	}
}

func TestRecordWebhookEventHashFallback(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	created, ev, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:       "stripe",
		PayloadJSON:    `{"no":"id"}`,
		SignatureValid: true,
	})
	if err != nil || !created {
		t.Fatalf("record: created=%v err=%v", created, err)
	}
	if !strings.HasPrefix(ev.ProviderEventID, "hash:") {
		t.Fatalf("expected hash fallback event id, got %q", ev.ProviderEventID)
	}

	// Same payload dedupes through the hash key.
	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:       "stripe",
		PayloadJSON:    `{"no":"id"}`,
		SignatureValid: true,
	})
	if err != nil || created {
		t.Fatalf("expected hash-keyed duplicate, created=%v err=%v", created, err)
	}
}

func TestRecordWebhookEventUnverifiedKeyedApart(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	// A delivery with a bad signature lands as an audit row under its own key.
	created, audit, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "checkout.session.completed",
		PayloadJSON:     "{}",
		SignatureValid:  false,
	})
	if err != nil || !created {
		t.Fatalf("unverified record: created=%v err=%v", created, err)
	}
	if !strings.HasPrefix(audit.ProviderEventID, "unverified:") {
		t.Fatalf("unverified event id = %q, want unverified: prefix", audit.ProviderEventID)
	}

	// The correctly signed retry of the same event ID is a fresh row, not a
	// duplicate of the audit entry.
	created, verified, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "checkout.session.completed",
		PayloadJSON:     "{}",
		SignatureValid:  true,
	})
	if err != nil || !created {
		t.Fatalf("signed retry: created=%v err=%v", created, err)
	}
	if verified.ID == audit.ID {
		t.Fatalf("signed retry reused the audit row %d", audit.ID)
	}
	if verified.ProviderEventID != "evt_1" {
		t.Fatalf("verified event id = %q, want evt_1", verified.ProviderEventID)
	}
}

func TestNeedsProcessing(t *testing.T) {
	now := testNow
	cases := []struct {
		name string
		ev   models.WebhookEvent
		want bool
	}{
		{"never processed", models.WebhookEvent{}, true},
		{"failed attempt", models.WebhookEvent{ProcessedAt: &now, ProcessingError: "boom"}, true},
		{"processed clean", models.WebhookEvent{ProcessedAt: &now}, false},
	}
	for _, tc := range cases {
		if got := NeedsProcessing(&tc.ev); got != tc.want {
			t.Fatalf("%s: NeedsProcessing = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestResolveTenantByCustomerRef(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "cus_42")
	svc := newTestService(repo)

	tenant, err := svc.ResolveTenantByCustomerRef(context.Background(), "stripe", "cus_42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.ID != 1 {
		t.Fatalf("tenant id = %d, want 1", tenant.ID)
	}

	_, err = svc.ResolveTenantByCustomerRef(context.Background(), "stripe", "cus_unknown")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not_found for unlinked ref, got %v", err)
	}
}

func TestRunPeriodSweep(t *testing.T) {
	repo := newFakeRepo()
	repo.addTenant(1, "")
	repo.addTenant(2, "")
	repo.addTenant(3, "")
	repo.addTenant(4, "")
	svc := newTestService(repo)

	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	repo.subs[1] = &models.Subscription{ID: 1, TenantID: 1, Status: models.SubscriptionStatusTrialing, TrialEndsAt: &past}
	repo.subs[2] = &models.Subscription{ID: 2, TenantID: 2, Status: models.SubscriptionStatusActive, CancelAtPeriodEnd: true, CurrentPeriodEnd: &past}
	repo.subs[3] = &models.Subscription{ID: 3, TenantID: 3, Status: models.SubscriptionStatusPastDue, GraceUntil: &past}
	repo.subs[4] = &models.Subscription{ID: 4, TenantID: 4, Status: models.SubscriptionStatusTrialing, TrialEndsAt: &future}

	swept, err := svc.RunPeriodSweep(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swept != 3 {
		t.Fatalf("swept = %d, want 3", swept)
	}

	if repo.subs[1].Status != models.SubscriptionStatusPastDue {
		t.Fatalf("elapsed trial: status = %q, want past_due", repo.subs[1].Status)
	}
	if repo.subs[1].GraceUntil == nil {
		t.Fatalf("elapsed trial must open a grace window")
	}
	if repo.subs[2].Status != models.SubscriptionStatusCanceled {
		t.Fatalf("crossed boundary: status = %q, want canceled", repo.subs[2].Status)
	}
	if repo.subs[3].Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expired grace: status = %q, want canceled", repo.subs[3].Status)
	}
	if repo.subs[4].Status != models.SubscriptionStatusTrialing {
		t.Fatalf("live trial must be untouched, got %q", repo.subs[4].Status)
	}

	// A second sweep finds nothing left to do.
	swept, err = svc.RunPeriodSweep(context.Background(), 100)
	if err != nil || swept != 0 {
		t.Fatalf("second sweep: swept=%d err=%v", swept, err)
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(2026, 2)
	if !start.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2026, 2, 28, 23, 59, 59, 999000000, time.UTC)) {
		t.Fatalf("end = %v", end)
	}

	// Leap year.
	_, end = MonthBounds(2028, 2)
	if end.Day() != 29 {
		t.Fatalf("leap february end day = %d, want 29", end.Day())
	}
}
