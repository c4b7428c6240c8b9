package cart

import (
	"context"
	"sync"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/models"
)

// MemoryStore keeps carts in process memory. Carts are lost on restart.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]Item
	clock cycle.Clock
}

func NewMemoryStore(clock cycle.Clock) *MemoryStore {
	return &MemoryStore{carts: make(map[string][]Item), clock: clock}
}

func (m *MemoryStore) Items(ctx context.Context, session string) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyOf(session), nil
}

func (m *MemoryStore) Add(ctx context.Context, session string, p models.Product) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[session]
	for i := range items {
		if items[i].ProductID == p.ID {
			items[i].Quantity++
			return m.copyOf(session), nil
		}
	}
	m.carts[session] = append(items, FromProduct(p, m.clock.Now()))
	return m.copyOf(session), nil
}

func (m *MemoryStore) UpdateQuantity(ctx context.Context, session, productID string, delta int) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[session]
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		if q := items[i].Quantity + delta; q > 0 {
			items[i].Quantity = q
		}
		return m.copyOf(session), nil
	}
	return nil, ErrItemNotFound
}

func (m *MemoryStore) Remove(ctx context.Context, session, productID string) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[session]
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		delete(m.carts, session)
	} else {
		m.carts[session] = kept
	}
	return m.copyOf(session), nil
}

func (m *MemoryStore) Clear(ctx context.Context, session string) error {
	if session == "" {
		return ErrMissingSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, session)
	return nil
}

func (m *MemoryStore) Take(ctx context.Context, session string) ([]Item, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.copyOf(session)
	delete(m.carts, session)
	return items, nil
}

func (m *MemoryStore) Restore(ctx context.Context, session string, items []Item) error {
	if session == "" {
		return ErrMissingSession
	}
	if len(items) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.carts[session]
	var restored []Item
	for _, item := range items {
		merged := false
		for i := range current {
			if current[i].ProductID == item.ProductID {
				current[i].Quantity += item.Quantity
				merged = true
				break
			}
		}
		if !merged {
			restored = append(restored, item)
		}
	}
	// Restored lines were added before anything in the cart now.
	m.carts[session] = append(restored, current...)
	return nil
}

func (m *MemoryStore) copyOf(session string) []Item {
	return append([]Item{}, m.carts[session]...)
}
