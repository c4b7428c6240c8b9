package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yummyfi/yummyfi-backend/store"
)

// ChangePruner drops old change-feed rows.
type ChangePruner interface {
	PruneChanges(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper removes orders from previous business days. It sweeps on every
// snapshot it receives and on a timer, because the window boundary moves with
// the clock even when no order changes.
type Sweeper struct {
	orders *OrderService
	pruner ChangePruner
	log    logrus.FieldLogger

	Interval time.Duration
	// Retention is how long change-feed rows are kept.
	Retention time.Duration
}

func NewSweeper(orders *OrderService, pruner ChangePruner, log logrus.FieldLogger) *Sweeper {
	return &Sweeper{
		orders:    orders,
		pruner:    pruner,
		log:       log,
		Interval:  time.Minute,
		Retention: 48 * time.Hour,
	}
}

// Run consumes sub until it closes or ctx ends.
func (s *Sweeper) Run(ctx context.Context, sub *store.Subscription) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.C:
			if !ok {
				return
			}
			w := s.orders.CurrentWindow()
			if _, err := s.orders.CleanupExpiredOrders(ctx, snap.Orders, w); err != nil && ctx.Err() == nil {
				s.log.WithError(err).Error("Cleanup sweep failed")
			}
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one full cleanup against the store and prunes the change
// feed. It returns the IDs of removed orders.
func (s *Sweeper) SweepOnce(ctx context.Context) []string {
	removed, err := s.orders.SweepExpired(ctx)
	if err != nil {
		s.log.WithError(err).Error("Cleanup sweep failed")
	}

	if s.pruner != nil {
		cutoff := s.orders.Clock().Now().Add(-s.Retention)
		n, err := s.pruner.PruneChanges(ctx, cutoff)
		if err != nil {
			s.log.WithError(err).Error("Failed to prune order change feed")
		} else if n > 0 {
			s.log.WithFields(logrus.Fields{"pruned": n, "cutoff": cutoff}).Debug("Pruned order change feed")
		}
	}
	return removed
}
