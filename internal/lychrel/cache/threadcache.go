// Package cache implements ThreadCache: a shared, snapshot-able memo from
// orbit element to terminal fate that lets independent seeds short-circuit
// once their orbits converge.
package cache

import (
	"sort"
	"sync"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/cache/workerlru"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/log"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
)

const defaultShouldCacheThreshold uint32 = 50

// Options configures a new ThreadCache. Grounded on the teacher's
// options-struct constructor idiom (ResolverOptions, UDPTransport(addr,...)).
type Options struct {
	// MaxLocalSize is the soft cap on the local plane; 0 disables eviction.
	MaxLocalSize int
	// ShouldCacheThreshold is the minimum iteration count an orbit must run
	// for its prefix to be admitted (default 50).
	ShouldCacheThreshold uint32
	Logger               log.Logger
}

// ThreadCache is the hunter's shared memo of explored orbit prefixes. It is
// split into a mutable local plane (entries added since the last snapshot)
// and an immutable snapshot plane from the last snapshot boundary.
type ThreadCache struct {
	mu       sync.RWMutex
	local    map[string]domain.ThreadInfo
	snapshot *SharedView

	maxLocalSize         int
	shouldCacheThreshold uint32
	logger               log.Logger

	hits   uint64
	misses uint64
}

// New constructs an empty ThreadCache.
func New(opts Options) *ThreadCache {
	threshold := opts.ShouldCacheThreshold
	if threshold == 0 {
		threshold = defaultShouldCacheThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &ThreadCache{
		local:                make(map[string]domain.ThreadInfo),
		snapshot:             emptyView,
		maxLocalSize:         opts.MaxLocalSize,
		shouldCacheThreshold: threshold,
		logger:               logger,
	}
}

// Lookup checks the local plane first, then the snapshot plane. A hit in
// either plane increments the hit counter; otherwise the miss counter.
func (c *ThreadCache) Lookup(n domain.BigDecimalInt) (domain.ThreadInfo, bool) {
	key := n.String()

	c.mu.Lock()
	if info, ok := c.local[key]; ok {
		c.hits++
		c.mu.Unlock()
		return info, true
	}
	snap := c.snapshot
	c.mu.Unlock()

	if info, ok := snap.Lookup(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return info, true
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return domain.ThreadInfo{}, false
}

// ShouldCache reports whether an orbit that ran for the given iteration
// count qualifies for cache admission.
func (c *ThreadCache) ShouldCache(iterations uint32) bool {
	return iterations >= c.shouldCacheThreshold
}

// AddThread admits path[i] for each i, with iterations_from_seed = base+i,
// per spec.md §3/§4.2. For a reached orbit, path[i]'s PalindromeAtIteration
// is k-i, where k is the orbit's step count (maxTested, or len(path)-1 if
// larger), so a prefix truncated by the engine still records the true
// distance to the palindrome. An empty path is a no-op.
func (c *ThreadCache) AddThread(path []domain.BigDecimalInt, base uint32, reached bool, maxTested uint32, finalDigits int, source string) {
	if len(path) == 0 {
		return
	}
	k := uint32(len(path) - 1)
	if maxTested > k {
		k = maxTested
	}

	c.mu.Lock()
	for i, p := range path {
		entry := domain.ThreadInfo{
			Seed:                p.String(),
			IterationsFromSeed:  base + uint32(i),
			MaxIterationsTested: maxTested,
			FinalDigits:         finalDigits,
			ReachedPalindrome:   reached,
			Source:              source,
		}
		if reached {
			remaining := k - uint32(i)
			entry.PalindromeAtIteration = &remaining
		}
		c.local[entry.Seed] = entry
	}
	c.evictLocked()
	c.mu.Unlock()
}

// Stats returns the cumulative hit/miss counters.
func (c *ThreadCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// HitRate returns hits / (hits+misses), or 0 if no lookups occurred.
func (c *ThreadCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// LocalLen returns the number of entries in the local plane.
func (c *ThreadCache) LocalLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.local)
}

// Snapshot promotes the current local plane into the snapshot plane,
// returning the new immutable view. Subsequent writes begin a fresh local
// plane; the returned view is never mutated afterward.
func (c *ThreadCache) Snapshot() *SharedView {
	c.mu.Lock()
	defer c.mu.Unlock()

	combined := make(map[string]domain.ThreadInfo, c.snapshot.Len()+len(c.local))
	for k, v := range c.snapshot.data {
		combined[k] = v
	}
	for k, v := range c.local {
		combined[k] = v
	}
	view := &SharedView{data: combined}
	c.snapshot = view
	c.local = make(map[string]domain.ThreadInfo)
	return view
}

// NewWorker returns a WorkerCache that consults view on a miss of its own
// bounded local plane, and accumulates admissions privately.
func (c *ThreadCache) NewWorker(view *SharedView, localCapacity int) (*WorkerCache, error) {
	plane, err := workerlru.New(localCapacity)
	if err != nil {
		return nil, err
	}
	return &WorkerCache{
		view:                 view,
		plane:                plane,
		shouldCacheThreshold: c.shouldCacheThreshold,
	}, nil
}

// Merge combines a worker's delta into the local plane using the dominance
// rule: for each key, keep the entry with the larger MaxIterationsTested
// (ties keep the existing entry). Hit/miss counters add. Eviction runs
// afterward if MaxLocalSize is set.
func (c *ThreadCache) Merge(delta map[string]domain.ThreadInfo, hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, incoming := range delta {
		existing, ok := c.local[k]
		if !ok || incoming.MaxIterationsTested > existing.MaxIterationsTested {
			c.local[k] = incoming
		}
	}
	c.hits += hits
	c.misses += misses

	c.evictLocked()
}

// MergeWorker is a convenience wrapper around Merge for a WorkerCache
// produced by NewWorker.
func (c *ThreadCache) MergeWorker(w *WorkerCache) {
	c.Merge(w.plane.Snapshot(), w.hits, w.misses)
}

// evictLocked removes the lowest-MaxIterationsTested decile of the local
// plane, repeatedly, until it is under MaxLocalSize. Must be called with
// c.mu held. Never touches the snapshot plane.
func (c *ThreadCache) evictLocked() {
	if c.maxLocalSize <= 0 {
		return
	}
	for len(c.local) > c.maxLocalSize {
		type kv struct {
			key string
			mit uint32
		}
		list := make([]kv, 0, len(c.local))
		for k, v := range c.local {
			list = append(list, kv{k, v.MaxIterationsTested})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].mit < list[j].mit })

		decile := len(list) / 10
		if decile == 0 {
			decile = 1
		}
		for i := 0; i < decile && i < len(list); i++ {
			delete(c.local, list[i].key)
		}
	}
}

// ExportImportant returns every entry (local and snapshot) whose
// MaxIterationsTested is at least 200, for durable persistence.
func (c *ThreadCache) ExportImportant() []domain.ThreadInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.ThreadInfo, 0)
	seen := make(map[string]bool)
	for k, v := range c.local {
		seen[k] = true
		if v.MaxIterationsTested >= 200 {
			out = append(out, v)
		}
	}
	for k, v := range c.snapshot.data {
		if seen[k] {
			continue
		}
		if v.MaxIterationsTested >= 200 {
			out = append(out, v)
		}
	}
	return out
}

// Import merges externally-sourced entries (e.g. from the durable bolt
// tier) directly into the snapshot plane, ahead of the first batch.
func (c *ThreadCache) Import(entries []domain.ThreadInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	combined := make(map[string]domain.ThreadInfo, c.snapshot.Len()+len(entries))
	for k, v := range c.snapshot.data {
		combined[k] = v
	}
	for _, e := range entries {
		combined[e.Seed] = e
	}
	c.snapshot = &SharedView{data: combined}
}

// WorkerCache is the ephemeral, per-worker cache handed to the engine
// during one batch's parallel fold. It consults its own bounded LRU plane
// first, then the shared snapshot view on a miss; it never writes into the
// hunter's cache directly.
type WorkerCache struct {
	view                 *SharedView
	plane                *workerlru.Plane
	shouldCacheThreshold uint32
	hits                 uint64
	misses               uint64
}

// Lookup implements engine.Cache.
func (w *WorkerCache) Lookup(n domain.BigDecimalInt) (domain.ThreadInfo, bool) {
	key := n.String()
	if info, ok := w.plane.Get(key); ok {
		w.hits++
		return info, true
	}
	if info, ok := w.view.Lookup(key); ok {
		w.hits++
		return info, true
	}
	w.misses++
	return domain.ThreadInfo{}, false
}

// ShouldCache implements engine.Cache.
func (w *WorkerCache) ShouldCache(iterations uint32) bool {
	return iterations >= w.shouldCacheThreshold
}

// AddThread implements engine.Cache, writing into the worker's own LRU
// plane only. Entries are built exactly as ThreadCache.AddThread builds them.
func (w *WorkerCache) AddThread(path []domain.BigDecimalInt, base uint32, reached bool, maxTested uint32, finalDigits int, source string) {
	if len(path) == 0 {
		return
	}
	k := uint32(len(path) - 1)
	if maxTested > k {
		k = maxTested
	}
	for i, p := range path {
		entry := domain.ThreadInfo{
			Seed:                p.String(),
			IterationsFromSeed:  base + uint32(i),
			MaxIterationsTested: maxTested,
			FinalDigits:         finalDigits,
			ReachedPalindrome:   reached,
			Source:              source,
		}
		if reached {
			remaining := k - uint32(i)
			entry.PalindromeAtIteration = &remaining
		}
		w.plane.Add(entry.Seed, entry)
	}
}

// HitMiss returns the worker's own hit/miss counters, to be folded into the
// hunter's statistics by the reducer.
func (w *WorkerCache) HitMiss() (hits, misses uint64) {
	return w.hits, w.misses
}
