package lifecycle

import (
	"fmt"
	"time"

	"github.com/yummyfi/yummyfi-backend/models"
)

// PrepAllowance is how long the kitchen has from confirmation to ready.
const PrepAllowance = 20 * time.Minute

// RemainingPrepTime returns what is left of the prep allowance.
//
// Confirmed orders count down live from confirmed_at. Ready orders report the
// allowance left at the moment they became ready; that value no longer moves.
// Completed orders report zero. Pending and cancelled orders have no timer and
// return ok=false. The result is never negative.
func RemainingPrepTime(o *models.Order, now time.Time) (remaining time.Duration, ok bool) {
	switch o.Status {
	case models.StatusConfirmed:
		if o.ConfirmedAt == nil {
			return 0, false
		}
		return saturate(PrepAllowance - now.Sub(*o.ConfirmedAt)), true
	case models.StatusReady:
		if o.ConfirmedAt == nil || o.ReadyAt == nil {
			return 0, false
		}
		return saturate(PrepAllowance - o.ReadyAt.Sub(*o.ConfirmedAt)), true
	case models.StatusCompleted:
		return 0, true
	}
	return 0, false
}

func saturate(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// PrepLabel renders the timer the way the tracking page shows it: MM:SS while
// counting, "Ready" once a confirmed order has used up its allowance or the
// order is ready, and "" when there is no timer.
func PrepLabel(o *models.Order, now time.Time) string {
	remaining, ok := RemainingPrepTime(o, now)
	if !ok {
		return ""
	}
	if o.Status != models.StatusConfirmed || remaining == 0 {
		return "Ready"
	}
	secs := int(remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
