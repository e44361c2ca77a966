// Package workerlru provides the bounded, recency-evicted delta plane used
// by each parallel-fold worker in a hunt. A worker's delta is short-lived
// (it is merged into the hunter's cache and discarded at the end of every
// batch), so ordinary LRU eviction is an acceptable bound on its memory —
// unlike the hunter's own authoritative local plane, which needs eviction
// by max_iterations_tested dominance (see cache.ThreadCache), a policy an
// LRU cannot express.
package workerlru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
)

// Plane is a bounded, LRU-evicted map from decimal-string orbit element to
// its cached ThreadInfo. Grounded on the shape of a generic size-bound LRU
// wrapper (New(size), Get, Add, Len, Keys).
type Plane struct {
	lru *lru.Cache[string, domain.ThreadInfo]
}

// New returns a Plane bounded to the given capacity.
func New(capacity int) (*Plane, error) {
	if capacity <= 0 {
		capacity = 10_000
	}
	c, err := lru.New[string, domain.ThreadInfo](capacity)
	if err != nil {
		return nil, err
	}
	return &Plane{lru: c}, nil
}

// Get retrieves a cached entry, if present.
func (p *Plane) Get(key string) (domain.ThreadInfo, bool) {
	return p.lru.Get(key)
}

// Add inserts or replaces the entry for key.
func (p *Plane) Add(key string, info domain.ThreadInfo) {
	p.lru.Add(key, info)
}

// Len returns the number of entries currently held.
func (p *Plane) Len() int {
	return p.lru.Len()
}

// Keys returns all keys currently held, in no particular order.
func (p *Plane) Keys() []string {
	return p.lru.Keys()
}

// Snapshot copies the plane's current contents into a plain map, suitable
// for folding into a ThreadCache's local plane via dominance-rule merge.
func (p *Plane) Snapshot() map[string]domain.ThreadInfo {
	out := make(map[string]domain.ThreadInfo, p.lru.Len())
	for _, k := range p.lru.Keys() {
		if v, ok := p.lru.Peek(k); ok {
			out[k] = v
		}
	}
	return out
}
