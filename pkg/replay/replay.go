// Package replay provides the bounded, age-limited nonce cache that guards
// webhook ingress against duplicate carrier deliveries (spec §4.6 step 3,
// §5 "process-wide in-memory LRU for replay nonces").
package replay

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Guard deduplicates external message ids within a bounded window. Misses
// on restart are acceptable per spec §5: the cache is rebuilt empty and
// false negatives are constrained by the nonce age.
type Guard struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

// NewGuard builds a replay guard holding up to size ids for ttl.
func NewGuard(size int, ttl time.Duration) *Guard {
	return &Guard{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Seen reports whether id has already been observed, recording it if not.
func (g *Guard) Seen(id string) bool {
	if id == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.cache.Get(id); ok {
		return true
	}
	g.cache.Add(id, struct{}{})
	return false
}
