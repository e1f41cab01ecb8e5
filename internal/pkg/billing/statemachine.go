package billing

import (
	"fmt"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
)

// Event is a subscription lifecycle trigger.
type Event string

const (
	EventPaymentSucceeded  Event = "payment_succeeded"
	EventPaymentFailed     Event = "payment_failed"
	EventCancelNow         Event = "cancel_now"
	EventCancelAtPeriodEnd Event = "cancel_at_period_end"
	EventResume            Event = "resume"
	EventTrialExpired      Event = "trial_expired"
	EventGraceExpired      Event = "grace_expired"
	EventPeriodElapsed     Event = "period_elapsed"
)

// ParseEventName maps an API event string to an Event.
func ParseEventName(s string) (Event, error) {
	switch Event(s) {
	case EventPaymentSucceeded, EventPaymentFailed, EventCancelNow,
		EventCancelAtPeriodEnd, EventResume, EventTrialExpired,
		EventGraceExpired, EventPeriodElapsed:
		return Event(s), nil
	default:
		return "", apperr.Validation("unknown_event", fmt.Sprintf("unknown subscription event %q", s))
	}
}

// applyEvent mutates sub in place according to the lifecycle state machine.
// It returns a conflict error for transitions the machine does not allow;
// callers persist the row only on success.
func applyEvent(sub *models.Subscription, ev Event, now time.Time, graceDays int) error {
	switch ev {
	case EventPaymentSucceeded:
		switch sub.Status {
		case models.SubscriptionStatusTrialing, models.SubscriptionStatusActive,
			models.SubscriptionStatusPastDue, models.SubscriptionStatusIncomplete:
			sub.Status = models.SubscriptionStatusActive
			sub.TrialEndsAt = nil
			sub.GraceUntil = nil
			return nil
		}

	case EventPaymentFailed:
		switch sub.Status {
		case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing:
			sub.Status = models.SubscriptionStatusPastDue
			grace := now.AddDate(0, 0, graceDays)
			sub.GraceUntil = &grace
			return nil
		}

	case EventCancelNow:
		switch sub.Status {
		case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing,
			models.SubscriptionStatusPastDue, models.SubscriptionStatusUnpaid:
			sub.Status = models.SubscriptionStatusCanceled
			sub.CancelAtPeriodEnd = false
			return nil
		}

	case EventCancelAtPeriodEnd:
		// Lazy cancellation: only the flag changes here. The status moves to
		// canceled when the period boundary is re-evaluated (sweep or read).
		if sub.Status == models.SubscriptionStatusActive {
			sub.CancelAtPeriodEnd = true
			return nil
		}

	case EventResume:
		if sub.Status == models.SubscriptionStatusCanceled {
			sub.Status = models.SubscriptionStatusActive
			sub.CancelAtPeriodEnd = false
			sub.GraceUntil = nil
			return nil
		}

	case EventTrialExpired:
		if sub.Status == models.SubscriptionStatusTrialing {
			sub.Status = models.SubscriptionStatusPastDue
			sub.TrialEndsAt = nil
			grace := now.AddDate(0, 0, graceDays)
			sub.GraceUntil = &grace
			return nil
		}

	case EventGraceExpired:
		if sub.Status == models.SubscriptionStatusPastDue {
			sub.Status = models.SubscriptionStatusCanceled
			sub.GraceUntil = nil
			return nil
		}

	case EventPeriodElapsed:
		if sub.Status == models.SubscriptionStatusActive && sub.CancelAtPeriodEnd {
			sub.Status = models.SubscriptionStatusCanceled
			sub.CancelAtPeriodEnd = false
			return nil
		}
		// Crossing a period boundary without a pending cancellation changes nothing.
		return nil

	default:
		return apperr.Validation("unknown_event", fmt.Sprintf("unknown subscription event %q", ev))
	}

	return apperr.Conflict("invalid_transition",
		fmt.Sprintf("event %s is not allowed in status %s", ev, sub.Status))
}

// EffectiveStatus derives the status a subscription is really in at the given
// instant, without mutating the row. It compensates for transitions that only
// a sweep would persist: an elapsed trial, an elapsed grace window and a
// crossed period boundary with cancel_at_period_end set.
func EffectiveStatus(sub *models.Subscription, now time.Time) string {
	switch sub.Status {
	case models.SubscriptionStatusTrialing:
		if sub.TrialEndsAt != nil && now.After(*sub.TrialEndsAt) {
			return models.SubscriptionStatusPastDue
		}
	case models.SubscriptionStatusActive:
		if sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd != nil && now.After(*sub.CurrentPeriodEnd) {
			return models.SubscriptionStatusCanceled
		}
	case models.SubscriptionStatusPastDue:
		if sub.GraceUntil != nil && now.After(*sub.GraceUntil) {
			return models.SubscriptionStatusCanceled
		}
	}
	return sub.Status
}
