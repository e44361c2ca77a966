// Package dedup provides probabilistic duplicate suppression for the
// SmartRandom generator mode, which samples with replacement and can
// otherwise re-test the same candidate many times over a long hunt.
package dedup

import (
	"math"
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// Filter is a thread-safe bloom filter sized for an expected population and
// target false-positive rate. A false positive means a genuinely-new seed is
// occasionally skipped as if already seen — acceptable for SmartRandom,
// whose sampling makes any single candidate replaceable by the next draw.
type Filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

// New constructs a Filter sized for capacity candidates at the given
// false-positive rate.
func New(capacity uint64, fpRate float64) *Filter {
	m, k := size(capacity, fpRate)
	return &Filter{bf: bitsbloom.New(uint(m), uint(k))}
}

// SeenOrMark reports whether key has been marked before; if not, it marks
// it and returns false. This test-and-set must be atomic under concurrent
// worker access, hence the write lock covering both the test and the add.
func (f *Filter) SeenOrMark(key []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bf.Test(key) {
		return true
	}
	f.bf.Add(key)
	return false
}

// Reset clears all marked keys. The generator does not call it: each width
// gets a new Generator and therefore a new, empty Filter.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bf.ClearAll()
}

// size computes bit-array width m and hash count k from the standard
// formulas: m = -(n * ln p) / (ln 2)^2, k = (m/n) * ln 2. Results are
// clamped to at least 1.
func size(n uint64, p float64) (uint64, uint8) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = 0.01
	}
	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	if m == 0 {
		m = 1
	}
	k := uint8(math.Max(1, math.Round((float64(m)/float64(n))*ln2)))
	return m, k
}
