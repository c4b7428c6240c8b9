// Package store is the order store: persistence for orders plus push-based
// snapshot subscriptions. Writes are single-record; status changes are
// conditional on the status the caller last saw.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict means the stored status no longer matched the expected one.
	ErrConflict = errors.New("order was modified concurrently")
	ErrClosed   = errors.New("store is closed")
)

// Query narrows a listing or subscription. Zero fields do not filter.
// Results are always newest first.
type Query struct {
	OrderID     string
	TableNumber string
	Statuses    []models.OrderStatus
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// Match applies the query to one order in memory.
func (q Query) Match(o *models.Order) bool {
	if q.OrderID != "" && o.ID != q.OrderID {
		return false
	}
	if q.TableNumber != "" && o.TableNumber != q.TableNumber {
		return false
	}
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if s == o.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !q.CreatedFrom.IsZero() && o.CreatedAt.Before(q.CreatedFrom) {
		return false
	}
	if !q.CreatedTo.IsZero() && !o.CreatedAt.Before(q.CreatedTo) {
		return false
	}
	return true
}

// Snapshot is the full current result of a query.
type Snapshot struct {
	Orders []models.Order `json:"orders"`
	// Seq is the last change-feed ID folded into this snapshot.
	Seq uint      `json:"seq"`
	At  time.Time `json:"at"`
}

// Filter returns a snapshot holding only the orders matching q.
func (s Snapshot) Filter(q Query) Snapshot {
	out := Snapshot{Seq: s.Seq, At: s.At, Orders: make([]models.Order, 0, len(s.Orders))}
	for i := range s.Orders {
		if q.Match(&s.Orders[i]) {
			out.Orders = append(out.Orders, s.Orders[i])
		}
	}
	return out
}

// OrderStore is everything the order service needs from persistence.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) (string, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, q Query) ([]models.Order, error)
	// UpdateStatus writes patch only if the stored status equals expected.
	UpdateStatus(ctx context.Context, id string, expected models.OrderStatus, patch lifecycle.Patch) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, q Query) (*Subscription, error)
}
