package services

import (
	"sync"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/store"
)

// OrderView folds snapshots into the latest known state. It is a display
// cache only; decisions about legality go to the store.
type OrderView struct {
	mu     sync.RWMutex
	snap   store.Snapshot
	loaded bool
}

func NewOrderView() *OrderView {
	return &OrderView{}
}

// Apply replaces the state with snap unless snap is older than what the view
// already holds. It reports whether the view changed.
func (v *OrderView) Apply(snap store.Snapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded && snap.Seq < v.snap.Seq {
		return false
	}
	v.snap = snap
	v.loaded = true
	return true
}

// Loaded reports whether any snapshot has arrived yet.
func (v *OrderView) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// Orders returns the current orders, newest first. Before the first snapshot
// it is empty, never nil.
func (v *OrderView) Orders() []models.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]models.Order{}, v.snap.Orders...)
}

func (v *OrderView) Find(id string) (models.Order, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, o := range v.snap.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

func (v *OrderView) Seq() uint {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap.Seq
}

// Summary aggregates the held orders over w.
func (v *OrderView) Summary(w cycle.Window) lifecycle.Summary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return lifecycle.Aggregate(v.snap.Orders, w)
}
