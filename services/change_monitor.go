package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/store"
)

// ChangeSource is the order change feed plus a way to read the full state.
type ChangeSource interface {
	ChangesSince(ctx context.Context, cursor uint, limit int) ([]models.OrderChange, error)
	Snapshot(ctx context.Context) (store.Snapshot, error)
	Broker() *store.Broker
}

// ChangeMonitor follows the change feed and publishes a fresh snapshot to the
// broker whenever new changes appear. Each monitor keeps its own cursor, so
// several server instances can share one database.
type ChangeMonitor struct {
	source   ChangeSource
	log      logrus.FieldLogger
	Interval time.Duration
	// BatchSize caps how many change rows are read per check.
	BatchSize int

	mu     sync.Mutex
	cursor uint
	wake   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

func NewChangeMonitor(source ChangeSource, log logrus.FieldLogger) *ChangeMonitor {
	return &ChangeMonitor{
		source:    source,
		log:       log,
		Interval:  1 * time.Second,
		BatchSize: 100,
		wake:      make(chan struct{}, 1),
	}
}

// Start publishes the current state, then polls until ctx ends or Stop is
// called.
func (cm *ChangeMonitor) Start(ctx context.Context) error {
	if err := cm.Prime(ctx); err != nil {
		return err
	}

	ctx, cm.cancel = context.WithCancel(ctx)
	cm.done = make(chan struct{})
	go func() {
		defer close(cm.done)
		ticker := time.NewTicker(cm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
			case <-cm.wake:
			case <-ctx.Done():
				return
			}
			if _, err := cm.CheckChanges(ctx); err != nil && ctx.Err() == nil {
				cm.log.WithError(err).Error("Error checking order changes")
			}
		}
	}()
	return nil
}

// Stop ends polling and waits for the loop to exit.
func (cm *ChangeMonitor) Stop() {
	if cm.cancel == nil {
		return
	}
	cm.cancel()
	<-cm.done
}

// Notify asks for a check without waiting for the next tick.
func (cm *ChangeMonitor) Notify() {
	select {
	case cm.wake <- struct{}{}:
	default:
	}
}

// Prime publishes the current state and moves the cursor to it.
func (cm *ChangeMonitor) Prime(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.publish(ctx)
}

// CheckChanges reads the feed past the cursor and, if anything changed,
// publishes a new snapshot. It reports whether it published.
func (cm *ChangeMonitor) CheckChanges(ctx context.Context) (bool, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	changes, err := cm.source.ChangesSince(ctx, cm.cursor, cm.BatchSize)
	if err != nil {
		return false, err
	}
	if len(changes) == 0 {
		return false, nil
	}

	for _, change := range changes {
		cm.log.WithFields(logrus.Fields{
			"change_id": change.ID,
			"order_id":  change.OrderID,
			"action":    change.Action,
		}).Debug("Processing order change")
	}

	if err := cm.publish(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (cm *ChangeMonitor) publish(ctx context.Context) error {
	snap, err := cm.source.Snapshot(ctx)
	if err != nil {
		return err
	}
	cm.source.Broker().Publish(snap)
	if snap.Seq > cm.cursor {
		cm.cursor = snap.Seq
	}
	cm.log.WithFields(logrus.Fields{
		"seq":    snap.Seq,
		"orders": len(snap.Orders),
	}).Debug("Published order snapshot")
	return nil
}

// Cursor is the last change ID folded into a published snapshot.
func (cm *ChangeMonitor) Cursor() uint {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.cursor
}
