package lifecycle

import (
	"fmt"
	"strings"

	"github.com/yummyfi/yummyfi-backend/models"
)

// CancelPolicy lists, per actor, the statuses an order may be cancelled from.
// The state machine still has the final say; the policy can only narrow it.
type CancelPolicy struct {
	Admin []models.OrderStatus
	User  []models.OrderStatus
}

// DefaultCancelPolicy lets staff cancel anything still open and customers
// cancel only while the order waits for confirmation.
func DefaultCancelPolicy() CancelPolicy {
	return CancelPolicy{
		Admin: []models.OrderStatus{models.StatusPending, models.StatusConfirmed, models.StatusReady},
		User:  []models.OrderStatus{models.StatusPending},
	}
}

func (p CancelPolicy) Allows(actor models.Actor, from models.OrderStatus) bool {
	var allowed []models.OrderStatus
	switch actor {
	case models.ActorAdmin:
		allowed = p.Admin
	case models.ActorUser:
		allowed = p.User
	}
	for _, s := range allowed {
		if s == from {
			return true
		}
	}
	return false
}

// ParseStatusList parses a comma separated list such as "pending,confirmed".
func ParseStatusList(s string) ([]models.OrderStatus, error) {
	var out []models.OrderStatus
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		st, ok := models.ParseStatus(part)
		if !ok {
			return nil, fmt.Errorf("unknown order status %q", part)
		}
		if IsTerminal(st) {
			return nil, fmt.Errorf("cannot cancel from terminal status %q", st)
		}
		out = append(out, st)
	}
	return out, nil
}
