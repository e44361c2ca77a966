package cache

import (
	"strconv"
	"testing"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
)

func parseN(t *testing.T, s string) domain.BigDecimalInt {
	t.Helper()
	n, err := domain.FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return n
}

func path(t *testing.T, ss ...string) []domain.BigDecimalInt {
	out := make([]domain.BigDecimalInt, len(ss))
	for i, s := range ss {
		out[i] = parseN(t, s)
	}
	return out
}

func TestThreadCache_LookupMissThenHit(t *testing.T) {
	c := New(Options{})
	if _, ok := c.Lookup(parseN(t, "196")); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.AddThread(path(t, "196", "887", "1675"), 0, false, 60, 0, domain.SourceSeed)

	if _, ok := c.Lookup(parseN(t, "887")); !ok {
		t.Fatalf("expected hit after AddThread admitted 887")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1,1", hits, misses)
	}
}

func TestThreadCache_ShouldCache(t *testing.T) {
	c := New(Options{})
	if c.ShouldCache(49) {
		t.Errorf("expected ShouldCache(49)=false with default threshold 50")
	}
	if !c.ShouldCache(50) {
		t.Errorf("expected ShouldCache(50)=true with default threshold 50")
	}
}

func TestThreadCache_AddThread_EmptyPathNoop(t *testing.T) {
	c := New(Options{})
	c.AddThread(nil, 0, true, 10, 5, domain.SourceSeed)
	if c.LocalLen() != 0 {
		t.Errorf("expected no-op for empty path")
	}
}

func TestThreadCache_AddThread_ImmediateLookup(t *testing.T) {
	c := New(Options{})
	p := path(t, "196", "887")
	c.AddThread(p, 0, true, 2, 7, domain.SourceSeed)
	for _, elem := range p {
		if _, ok := c.Lookup(elem); !ok {
			t.Errorf("expected lookup(%s) to hit immediately after AddThread", elem.String())
		}
	}
}

func TestThreadCache_Snapshot_Isolation(t *testing.T) {
	c := New(Options{})
	c.AddThread(path(t, "196"), 0, false, 60, 0, domain.SourceSeed)

	view := c.Snapshot()
	if view.Len() != 1 {
		t.Fatalf("expected snapshot to capture 1 entry, got %d", view.Len())
	}

	// Mutate the cache after the snapshot; the view must be unaffected.
	c.AddThread(path(t, "887"), 0, false, 60, 0, domain.SourceSeed)
	if view.Len() != 1 {
		t.Errorf("expected snapshot view to remain at 1 entry, got %d", view.Len())
	}
	if _, ok := view.Lookup("887"); ok {
		t.Errorf("expected snapshot view to not see post-snapshot writes")
	}
}

func TestThreadCache_MergeDominance(t *testing.T) {
	c := New(Options{})
	c.AddThread(path(t, "196"), 0, false, 40, 0, domain.SourceSeed)

	delta := map[string]domain.ThreadInfo{
		"196": {Seed: "196", MaxIterationsTested: 90, ReachedPalindrome: false},
	}
	c.Merge(delta, 0, 0)

	got, ok := c.Lookup(parseN(t, "196"))
	if !ok {
		t.Fatalf("expected entry to survive merge")
	}
	if got.MaxIterationsTested != 90 {
		t.Errorf("MaxIterationsTested = %d, want 90 (dominance rule should keep the larger)", got.MaxIterationsTested)
	}

	// Merging a strictly weaker entry should not regress the dominant one.
	c.Merge(map[string]domain.ThreadInfo{
		"196": {Seed: "196", MaxIterationsTested: 10},
	}, 0, 0)
	got2, _ := c.Lookup(parseN(t, "196"))
	if got2.MaxIterationsTested != 90 {
		t.Errorf("expected dominant entry (90) to survive weaker merge, got %d", got2.MaxIterationsTested)
	}
}

func TestThreadCache_Eviction_NeverTouchesSnapshot(t *testing.T) {
	c := New(Options{MaxLocalSize: 5})
	c.AddThread(path(t, "196"), 0, false, 60, 0, domain.SourceSeed)
	snapBeforeEvict := c.Snapshot() // 196 now lives in snapshot, local empty

	// Fill local past the bound with low-iteration entries.
	for i := 0; i < 20; i++ {
		c.AddThread(path(t, fmtN(i+1000)), 0, false, uint32(i), 0, domain.SourceSeed)
	}
	if c.LocalLen() > 5 {
		t.Errorf("expected eviction to keep local plane near bound, got %d", c.LocalLen())
	}
	if snapBeforeEvict.Len() != 1 {
		t.Errorf("expected snapshot to be untouched by eviction, got len %d", snapBeforeEvict.Len())
	}
}

func TestThreadCache_EvictionKeepsHighestIterations(t *testing.T) {
	c := New(Options{MaxLocalSize: 2})
	c.AddThread(path(t, "1"), 0, false, 5, 0, domain.SourceSeed)
	c.AddThread(path(t, "2"), 0, false, 500, 0, domain.SourceSeed)
	c.AddThread(path(t, "3"), 0, false, 10, 0, domain.SourceSeed)
	// Force an eviction cycle via Merge (spec: eviction runs after merge).
	c.Merge(map[string]domain.ThreadInfo{}, 0, 0)

	if _, ok := c.Lookup(parseN(t, "2")); !ok {
		t.Errorf("expected the highest max_iterations_tested entry to survive eviction")
	}
}

func TestThreadCache_NewWorkerAndMergeWorker(t *testing.T) {
	c := New(Options{})
	c.AddThread(path(t, "196", "887"), 0, false, 60, 0, domain.SourceSeed)
	view := c.Snapshot()

	w, err := c.NewWorker(view, 100)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	if _, ok := w.Lookup(parseN(t, "887")); !ok {
		t.Fatalf("expected worker to see shared snapshot on miss of its own plane")
	}
	w.AddThread(path(t, "1675"), 0, false, 5, 0, domain.SourceSeed)

	c.MergeWorker(w)
	if _, ok := c.Lookup(parseN(t, "1675")); !ok {
		t.Errorf("expected worker admission to be visible after MergeWorker")
	}
}

func TestThreadCache_ExportImportant(t *testing.T) {
	c := New(Options{})
	c.AddThread(path(t, "1"), 0, false, 10, 0, domain.SourceSeed)
	c.AddThread(path(t, "2"), 0, false, 250, 0, domain.SourceSeed)
	c.Snapshot()
	c.AddThread(path(t, "3"), 0, false, 300, 0, domain.SourceSeed)

	important := c.ExportImportant()
	if len(important) != 2 {
		t.Fatalf("expected 2 important entries, got %d", len(important))
	}
}

func fmtN(n int) string {
	return strconv.Itoa(n)
}
