package lifecycle

import (
	"time"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/models"
)

// Summary is the dashboard view of one business day.
type Summary struct {
	Window       cycle.Window               `json:"window"`
	TotalOrders  int                        `json:"total_orders"`
	ByStatus     map[models.OrderStatus]int `json:"by_status"`
	TotalRevenue float64                    `json:"total_revenue"`
}

func createdAt(o models.Order) time.Time { return o.CreatedAt }

// InWindow yields the orders created inside w.
func InWindow(orders []models.Order, w cycle.Window) []models.Order {
	return cycle.Collect(cycle.Filter(orders, w, createdAt))
}

// Aggregate counts the window's orders by status. Only completed orders count
// toward revenue.
func Aggregate(orders []models.Order, w cycle.Window) Summary {
	s := Summary{Window: w, ByStatus: make(map[models.OrderStatus]int, len(models.AllStatuses))}
	for _, st := range models.AllStatuses {
		s.ByStatus[st] = 0
	}
	for o := range cycle.Filter(orders, w, createdAt) {
		s.TotalOrders++
		s.ByStatus[o.Status]++
		if o.Status == models.StatusCompleted {
			s.TotalRevenue += o.TotalAmount
		}
	}
	return s
}

// Expired returns orders created before the window opened.
func Expired(orders []models.Order, w cycle.Window) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if o.CreatedAt.Before(w.Start) {
			out = append(out, o)
		}
	}
	return out
}
