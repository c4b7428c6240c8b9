// Package lifecycle holds the order state machine and everything derived from
// an order's timestamps. It never talks to storage; callers hand it the
// freshest order they have and persist the Patch it returns.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/yummyfi/yummyfi-backend/models"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCancelNotAllowed  = errors.New("cancellation not allowed")
	ErrActorRequired     = errors.New("cancellation requires an actor")
)

// TransitionError describes a rejected edge.
type TransitionError struct {
	From   models.OrderStatus
	To     models.OrderStatus
	Reason error
}

func (e *TransitionError) Error() string {
	if e.Reason != nil && !errors.Is(e.Reason, ErrInvalidTransition) {
		return fmt.Sprintf("cannot move order from %s to %s: %v", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func (e *TransitionError) Unwrap() error {
	return e.Reason
}

// transitions is the complete edge set. Completed and cancelled are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusCompleted, models.StatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next lists the statuses reachable from s in one step.
func Next(s models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus(nil), transitions[s]...)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.OrderStatus) bool {
	return len(transitions[s]) == 0
}

// Patch is the set of fields a transition writes.
type Patch struct {
	Status      models.OrderStatus
	ConfirmedAt *time.Time
	ReadyAt     *time.Time
	CancelledAt *time.Time
	CancelledBy *models.Actor
}

// Apply validates moving order to target at now and returns what to persist.
// actor is only consulted for cancellation, where policy decides whether that
// actor may cancel from the order's current status.
func Apply(order *models.Order, target models.OrderStatus, actor models.Actor, now time.Time, policy CancelPolicy) (Patch, error) {
	from := order.Status
	if !CanTransition(from, target) {
		return Patch{}, &TransitionError{From: from, To: target, Reason: ErrInvalidTransition}
	}

	p := Patch{Status: target}
	switch target {
	case models.StatusConfirmed:
		p.ConfirmedAt = &now
	case models.StatusReady:
		if order.ConfirmedAt == nil {
			return Patch{}, &TransitionError{From: from, To: target, Reason: errors.New("order was never confirmed")}
		}
		at := now
		if at.Before(*order.ConfirmedAt) {
			at = *order.ConfirmedAt
		}
		p.ReadyAt = &at
	case models.StatusCancelled:
		if actor == "" {
			return Patch{}, &TransitionError{From: from, To: target, Reason: ErrActorRequired}
		}
		if !policy.Allows(actor, from) {
			return Patch{}, &TransitionError{From: from, To: target, Reason: ErrCancelNotAllowed}
		}
		by := actor
		p.CancelledAt = &now
		p.CancelledBy = &by
	}
	return p, nil
}

// ApplyTo copies the patch onto an in-memory order.
func (p Patch) ApplyTo(o *models.Order) {
	o.Status = p.Status
	if p.ConfirmedAt != nil {
		o.ConfirmedAt = p.ConfirmedAt
	}
	if p.ReadyAt != nil {
		o.ReadyAt = p.ReadyAt
	}
	if p.CancelledAt != nil {
		o.CancelledAt = p.CancelledAt
		o.CancelledBy = p.CancelledBy
	}
}

// Fields renders the patch as a column map for a partial update.
func (p Patch) Fields() map[string]interface{} {
	fields := map[string]interface{}{"status": string(p.Status)}
	if p.ConfirmedAt != nil {
		fields["confirmed_at"] = *p.ConfirmedAt
	}
	if p.ReadyAt != nil {
		fields["ready_at"] = *p.ReadyAt
	}
	if p.CancelledAt != nil {
		fields["cancelled_at"] = *p.CancelledAt
		fields["cancelled_by"] = string(*p.CancelledBy)
	}
	return fields
}

// CheckInvariants verifies the timestamp rules every stored order must obey.
func CheckInvariants(o *models.Order) error {
	if _, ok := models.ParseStatus(string(o.Status)); !ok {
		return fmt.Errorf("unknown status %q", o.Status)
	}

	passedConfirmed := o.Status == models.StatusConfirmed || o.Status == models.StatusReady || o.Status == models.StatusCompleted
	if passedConfirmed && o.ConfirmedAt == nil {
		return fmt.Errorf("%s order has no confirmed_at", o.Status)
	}
	if o.ReadyAt != nil {
		if o.ConfirmedAt == nil {
			return errors.New("ready_at set without confirmed_at")
		}
		if o.ReadyAt.Before(*o.ConfirmedAt) {
			return errors.New("ready_at precedes confirmed_at")
		}
	}

	cancelled := o.Status == models.StatusCancelled
	if cancelled != (o.CancelledAt != nil) || cancelled != (o.CancelledBy != nil) {
		return errors.New("cancelled_at and cancelled_by must be set exactly when cancelled")
	}
	return nil
}
