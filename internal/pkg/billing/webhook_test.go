package billing

import (
	"testing"
	"time"
)

func TestParseWebhookEventCheckoutCompleted(t *testing.T) {
	raw := []byte(`{
		"id": "evt_100",
		"type": "checkout.session.completed",
		"data": {
			"customer_ref": "cus_42",
			"subscription": {
				"id": "sub_7",
				"status": "active",
				"price_ref": "price_pro_monthly",
				"current_period_end": 1767139199,
				"cancel_at_period_end": false
			}
		}
	}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != EventKindCheckoutCompleted {
		t.Fatalf("kind = %q, want checkout.session.completed", ev.Kind)
	}
	if ev.EventID != "evt_100" || ev.CustomerRef != "cus_42" {
		t.Fatalf("unexpected identifiers: id=%q customer=%q", ev.EventID, ev.CustomerRef)
	}
	if ev.Snapshot == nil || ev.Snapshot.PriceRef != "price_pro_monthly" {
		t.Fatalf("unexpected snapshot: %+v", ev.Snapshot)
	}
	want := time.Unix(1767139199, 0).UTC()
	if got := ev.Snapshot.PeriodEnd(); got == nil || !got.Equal(want) {
		t.Fatalf("period end = %v, want %v", got, want)
	}
}

func TestParseWebhookEventSubscriptionUpdated(t *testing.T) {
	raw := []byte(`{
		"id": "evt_101",
		"type": "customer.subscription.updated",
		"data": {
			"customer_ref": "cus_42",
			"subscription": {"id": "sub_7", "status": "past_due", "cancel_at_period_end": true}
		}
	}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != EventKindSubscriptionUpdated {
		t.Fatalf("kind = %q", ev.Kind)
	}
	if !ev.Snapshot.CancelAtPeriodEnd {
		t.Fatalf("expected cancel_at_period_end to carry through")
	}
	if ev.Snapshot.PeriodEnd() != nil {
		t.Fatalf("expected absent period end to be nil")
	}
}

func TestParseWebhookEventUnknownType(t *testing.T) {
	raw := []byte(`{"id": "evt_102", "type": "invoice.finalized", "data": {"customer_ref": "cus_42"}}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unknown types must not error: %v", err)
	}
	if ev.Kind != EventKindUnknown {
		t.Fatalf("kind = %q, want unknown", ev.Kind)
	}
}

func TestParseWebhookEventInvalid(t *testing.T) {
	if _, err := ParseWebhookEvent([]byte(`not json`)); err == nil {
		t.Fatalf("expected malformed JSON to error")
	}

	// Known kind without customer_ref is rejected.
	missingRef := []byte(`{"id": "evt_103", "type": "customer.subscription.deleted", "data": {"subscription": {"id": "sub_7", "status": "canceled"}}}`)
	if _, err := ParseWebhookEvent(missingRef); err == nil {
		t.Fatalf("expected missing customer_ref to error")
	}

	// Subscription events need a snapshot.
	missingSnap := []byte(`{"id": "evt_104", "type": "customer.subscription.updated", "data": {"customer_ref": "cus_42"}}`)
	if _, err := ParseWebhookEvent(missingSnap); err == nil {
		t.Fatalf("expected missing snapshot to error")
	}
}
