package store

import (
	"context"
	"sync"
)

// Subscription delivers snapshots until closed. A slow reader never blocks the
// broker: an undelivered snapshot is replaced by the newer one.
type Subscription struct {
	C <-chan Snapshot

	ch     chan Snapshot
	done   chan struct{}
	query  Query
	broker *Broker
	once   sync.Once
}

// Close unsubscribes and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

// Broker fans snapshots out to subscriptions.
type Broker struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	last   *Snapshot
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers q. If a snapshot has already been published the
// subscription starts with it; initial may supply one when none has.
// The subscription closes when ctx ends.
func (b *Broker) Subscribe(ctx context.Context, q Query, initial *Snapshot) (*Subscription, error) {
	ch := make(chan Snapshot, 1)
	sub := &Subscription{C: ch, ch: ch, done: make(chan struct{}), query: q, broker: b}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.subs[sub] = struct{}{}
	first := b.last
	if first == nil {
		first = initial
	}
	if first != nil {
		ch <- first.Filter(q)
	}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

// Publish delivers snap to every subscription, filtered by its query.
// Snapshots older than the last published one are dropped.
func (b *Broker) Publish(snap Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.last != nil && snap.Seq < b.last.Seq {
		return
	}
	b.last = &snap
	for sub := range b.subs {
		deliver(sub.ch, snap.Filter(sub.query))
	}
}

// Last returns the most recently published snapshot, if any.
func (b *Broker) Last() (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return Snapshot{}, false
	}
	return *b.last, true
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
		close(sub.done)
		delete(b.subs, sub)
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
	close(sub.done)
}

// deliver replaces any pending snapshot with snap. Callers hold the broker
// lock, so the channel has no other writer.
func deliver(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
