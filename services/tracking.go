package services

import (
	"time"

	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
)

// Tracking is what the customer's order page shows.
type Tracking struct {
	Order      *models.Order `json:"order"`
	BillNumber string        `json:"bill_number"`
	HasTimer   bool          `json:"has_timer"`
	// RemainingSeconds is only meaningful when HasTimer is set.
	RemainingSeconds int64  `json:"remaining_seconds"`
	PrepLabel        string `json:"prep_label"`
	// Progress runs from 0 at confirmation to 1 once the allowance is used up.
	Progress float64 `json:"progress"`
}

func NewTracking(order *models.Order, now time.Time) Tracking {
	t := Tracking{Order: order, BillNumber: order.BillNumber()}
	remaining, ok := lifecycle.RemainingPrepTime(order, now)
	if !ok {
		return t
	}
	t.HasTimer = true
	t.RemainingSeconds = int64(remaining / time.Second)
	t.PrepLabel = lifecycle.PrepLabel(order, now)
	t.Progress = 1 - float64(remaining)/float64(lifecycle.PrepAllowance)
	return t
}
