package billing

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// EventKind tags the webhook payload variants this engine understands.
// Anything else parses as EventKindUnknown, which callers acknowledge and
// only keep for audit.
type EventKind string

const (
	EventKindCheckoutCompleted   EventKind = "checkout.session.completed"
	EventKindSubscriptionUpdated EventKind = "customer.subscription.updated"
	EventKindSubscriptionDeleted EventKind = "customer.subscription.deleted"
	EventKindUnknown             EventKind = "unknown"
)

// WebhookEvent is the parsed form of an inbound provider event: a tagged
// union of the known kinds plus the unknown variant carrying the raw payload.
type WebhookEvent struct {
	Kind        EventKind
	EventID     string
	CustomerRef string
	Snapshot    *providerSubscription
	Raw         json.RawMessage
}

// providerSubscription is the subscription snapshot embedded in provider
// events. CurrentPeriodEnd arrives as a unix timestamp.
type providerSubscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	PriceRef          string `json:"price_ref"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// PeriodEnd converts the unix period end to a *time.Time, nil when absent.
func (p *providerSubscription) PeriodEnd() *time.Time {
	if p == nil || p.CurrentPeriodEnd <= 0 {
		return nil
	}
	t := time.Unix(p.CurrentPeriodEnd, 0).UTC()
	return &t
}

// ParseWebhookEvent decodes a provider payload into the event union. Unknown
// event types are not an error; they return a WebhookEvent with
// Kind=EventKindUnknown so the caller can acknowledge and audit them.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			CustomerRef  string                `json:"customer_ref"`
			Subscription *providerSubscription `json:"subscription"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	ev := &WebhookEvent{
		EventID:     strings.TrimSpace(raw.ID),
		CustomerRef: strings.TrimSpace(raw.Data.CustomerRef),
		Snapshot:    raw.Data.Subscription,
		Raw:         json.RawMessage(payload),
	}

	switch EventKind(strings.TrimSpace(raw.Type)) {
	case EventKindCheckoutCompleted:
		ev.Kind = EventKindCheckoutCompleted
	case EventKindSubscriptionUpdated:
		ev.Kind = EventKindSubscriptionUpdated
	case EventKindSubscriptionDeleted:
		ev.Kind = EventKindSubscriptionDeleted
	default:
		ev.Kind = EventKindUnknown
		return ev, nil
	}

	if ev.CustomerRef == "" {
		return nil, errors.New("webhook payload missing customer_ref")
	}
	if ev.Kind != EventKindCheckoutCompleted && ev.Snapshot == nil {
		return nil, errors.New("webhook payload missing subscription snapshot")
	}
	return ev, nil
}
