package utils

import (
	"sync"
	"time"
)

// TokenBlacklist remembers signed-out tokens until they would have expired
// anyway.
type TokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]time.Time)}
}

func (b *TokenBlacklist) Add(token string, until time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = until
}

func (b *TokenBlacklist) Contains(token string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	until, ok := b.tokens[token]
	return ok && time.Now().Before(until)
}

// Purge drops entries that expired before now and reports how many went.
func (b *TokenBlacklist) Purge(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for token, until := range b.tokens {
		if !now.Before(until) {
			delete(b.tokens, token)
			n++
		}
	}
	return n
}
