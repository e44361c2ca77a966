package hunter

import (
	"context"
	"testing"
	"time"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/cache"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/clock"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/log"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/config"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/engine"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/generator"
)

func testConfig() *config.HuntConfig {
	return &config.HuntConfig{
		MinDigits:          1,
		MaxDigits:          2,
		TargetIterations:   3,
		MaxIterations:      100,
		TargetFinalDigits:  2,
		CacheSize:          1000,
		WorkerCacheSize:    100,
		GeneratorMode:      string(generator.Sequential),
		CheckpointInterval: 1_000_000,
		BatchSize:          50,
	}
}

func newTestHunter(t *testing.T, cfg *config.HuntConfig, onRecord RecordFoundFunc) *RecordHunter {
	t.Helper()
	gen, err := generator.New(generator.Sequential, cfg.MinDigits, "")
	if err != nil {
		t.Fatalf("generator.New: %v", err)
	}
	mc := &clock.MockClock{CurrentTime: time.Unix(0, 0)}
	return New(Options{
		Config:      cfg,
		Engine:      engine.New(0),
		Cache:       cache.New(cache.Options{MaxLocalSize: cfg.CacheSize}),
		Clock:       mc,
		Logger:      log.NewNoopLogger(),
		Generator:   gen,
		Width:       cfg.MinDigits,
		Stats:       domain.NewHuntStatistics(mc.Now()),
		WorkerCount: 2,
		OnRecord:    onRecord,
	})
}

func TestRunBatch_ProcessesWholeWidthAndTerminates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDigits = 1 // single width, small enough to exhaust in one batch
	h := newTestHunter(t, cfg, nil)

	if !h.RunBatch() {
		t.Fatalf("expected first RunBatch to process the single-digit width")
	}
	if h.Stats().NumbersTested == 0 {
		t.Errorf("expected NumbersTested > 0 after a batch")
	}
	if h.RunBatch() {
		t.Errorf("expected width to be exhausted after one batch of width-1 candidates")
	}
}

func TestRunBatch_TracksSeedsTested(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDigits = 2
	h := newTestHunter(t, cfg, nil)

	h.RunBatch()
	if h.Stats().SeedsTested == 0 {
		t.Errorf("expected some candidates to pass the orbit-representative filter")
	}
}

func TestRun_AdvancesWidthsAndTerminates(t *testing.T) {
	cfg := testConfig()
	cfg.MinDigits = 1
	cfg.MaxDigits = 2
	h := newTestHunter(t, cfg, nil)

	ctx := context.Background()
	if err := h.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.Width() != 2 {
		t.Errorf("expected hunter to finish at width 2, got %d", h.Width())
	}
	if len(h.Stats().WidthsCompleted) == 0 {
		t.Errorf("expected at least one width completion recorded")
	}
}

func TestRun_CheckspointCalledOnCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDigits = 0 // unbounded: only ctx cancellation stops it
	called := false

	gen, err := generator.New(generator.SmartRandom, cfg.MinDigits, "")
	if err != nil {
		t.Fatalf("generator.New: %v", err)
	}
	mc := &clock.MockClock{CurrentTime: time.Unix(0, 0)}
	h := New(Options{
		Config:      cfg,
		Engine:      engine.New(0),
		Cache:       cache.New(cache.Options{MaxLocalSize: cfg.CacheSize}),
		Clock:       mc,
		Logger:      log.NewNoopLogger(),
		Generator:   gen,
		Width:       cfg.MinDigits,
		Stats:       domain.NewHuntStatistics(mc.Now()),
		WorkerCount: 2,
		CheckpointFunc: func(*RecordHunter) error {
			called = true
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel before the first batch runs

	if err := h.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !called {
		t.Errorf("expected checkpoint to be invoked on cancellation")
	}
}

func TestFoldChunk_RespectsRecordAndPromisingPredicates(t *testing.T) {
	cfg := testConfig()
	cfg.TargetIterations = 1
	cfg.MaxIterations = 1000
	cfg.TargetFinalDigits = 1

	var records []domain.RecordCandidate
	h := newTestHunter(t, cfg, func(rc domain.RecordCandidate) {
		records = append(records, rc)
	})

	// 10 fails the orbit-representative filter (reverse(10) = 1 < 10), so
	// foldChunk never iterates it and it yields neither a record nor a
	// promising candidate. foldChunk itself never calls onRecord; records
	// are dispatched later, by applyReduced.
	shared := h.cache.Snapshot()
	p10Max := h.gen.P10Max()
	n, _ := domain.FromString("10")
	result, _ := h.foldChunk([]domain.BigDecimalInt{n}, shared, p10Max)
	if len(result.records) != 0 || len(result.promising) != 0 {
		t.Errorf("expected no record or promising candidate for 10, got records=%v promising=%v", result.records, result.promising)
	}
	if len(records) != 0 {
		t.Errorf("expected foldChunk not to dispatch onRecord, got %d calls", len(records))
	}
}

func TestPartition_EvenAndRemainder(t *testing.T) {
	items := make([]domain.BigDecimalInt, 10)
	for i := range items {
		items[i] = domain.FromInt64(int64(i))
	}
	chunks := partition(items, 3)
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != len(items) {
		t.Errorf("partition lost items: got %d total, want %d", total, len(items))
	}
	if len(chunks) > 3 {
		t.Errorf("expected at most 3 chunks, got %d", len(chunks))
	}
}

func TestPartition_FewerItemsThanWorkers(t *testing.T) {
	items := []domain.BigDecimalInt{domain.FromInt64(1), domain.FromInt64(2)}
	chunks := partition(items, 8)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks for 2 items, got %d", len(chunks))
	}
}
