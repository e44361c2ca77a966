// Package hunter implements RecordHunter: the batch loop that pulls
// candidates from a generator, folds them across worker goroutines against
// a shared cache snapshot, and tracks records and statistics.
package hunter

import (
	"context"
	"fmt"
	"sync"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/cache"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/clock"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/log"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/config"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/engine"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/generator"
)

const quickFilterIterations uint32 = 50
const quickFilterMinBitGrowth = 66

// RecordFoundFunc is invoked for every candidate satisfying the record
// predicate. Implementations typically write record_<iterations>_iter files.
type RecordFoundFunc func(domain.RecordCandidate)

// RecordHunter orchestrates one width-bounded hunt: pull batch, fold in
// parallel against a shared snapshot, reduce, merge, checkpoint.
type RecordHunter struct {
	cfg    *config.HuntConfig
	engine *engine.Engine
	cache  *cache.ThreadCache
	clock  clock.Clock
	logger log.Logger

	gen   *generator.Generator
	width int

	stats *domain.HuntStatistics

	workerCount int

	onRecord RecordFoundFunc

	checkpointFn func(*RecordHunter) error
}

// Options configures a RecordHunter.
type Options struct {
	Config      *config.HuntConfig
	Engine      *engine.Engine
	Cache       *cache.ThreadCache
	Clock       clock.Clock
	Logger      log.Logger
	Generator   *generator.Generator
	Width       int
	Stats       *domain.HuntStatistics
	WorkerCount int
	OnRecord    RecordFoundFunc

	// CheckpointFunc persists a checkpoint; invoked at checkpoint_interval
	// boundaries and once more before Run returns. Optional.
	CheckpointFunc func(*RecordHunter) error
}

// New constructs a RecordHunter from opts, applying sensible defaults for
// anything the caller left zero-valued.
func New(opts Options) *RecordHunter {
	workers := opts.WorkerCount
	if workers <= 0 {
		workers = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	stats := opts.Stats
	if stats == nil {
		stats = domain.NewHuntStatistics(c.Now())
	}
	return &RecordHunter{
		cfg:         opts.Config,
		engine:      opts.Engine,
		cache:       opts.Cache,
		clock:       c,
		logger:      logger,
		gen:         opts.Generator,
		width:       opts.Width,
		stats:       stats,
		workerCount:  workers,
		onRecord:     opts.OnRecord,
		checkpointFn: opts.CheckpointFunc,
	}
}

// Stats returns the hunter's running statistics.
func (h *RecordHunter) Stats() *domain.HuntStatistics { return h.stats }

// Generator returns the hunter's active generator.
func (h *RecordHunter) Generator() *generator.Generator { return h.gen }

// Width returns the digit width currently being hunted.
func (h *RecordHunter) Width() int { return h.width }

// Cache returns the hunter's ThreadCache, for callers that need to export
// or refresh a durable tier around checkpoints.
func (h *RecordHunter) Cache() *cache.ThreadCache { return h.cache }

// foldResult is a worker's contribution to one batch, reduced pairwise by
// the main goroutine after the parallel fold completes. The worker's cache
// itself (its admitted entries and hit/miss counters) travels separately so
// RunBatch can merge it back through the single-writer ThreadCache.
type foldResult struct {
	records     []domain.RecordCandidate
	promising   []domain.RecordCandidate
	seedsTested uint64
	bestIters   uint32
	bestDigits  int
}

// RunBatch pulls one batch (size cfg.BatchSize) from the generator, folds it
// in parallel, reduces, merges the worker caches back into the hunter's
// cache, and updates statistics. It returns false once the generator for
// the current width is exhausted and nothing was pulled.
func (h *RecordHunter) RunBatch() bool {
	raw := h.gen.NextRawBatch(h.cfg.BatchSize)
	if len(raw) == 0 {
		return false
	}

	shared := h.cache.Snapshot()
	p10Max := h.gen.P10Max()

	chunks := partition(raw, h.workerCount)
	results := make([]foldResult, len(chunks))
	workers := make([]*cache.WorkerCache, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []domain.BigDecimalInt) {
			defer wg.Done()
			results[i], workers[i] = h.foldChunk(chunk, shared, p10Max)
		}(i, chunk)
	}
	wg.Wait()

	// The hunter is the sole mutator of its cache: merges happen here,
	// sequentially, after every worker has finished its share of the fold.
	for _, w := range workers {
		if w != nil {
			h.cache.MergeWorker(w)
		}
	}

	reduced := reduce(results)
	h.applyReduced(reduced, len(raw))

	return true
}

// foldChunk runs the quick filter and cache-consulting iteration over one
// worker's share of the batch, using its own bounded local plane backed by
// shared, and returns its contribution for the reducer alongside the
// worker cache itself for the caller to merge back.
func (h *RecordHunter) foldChunk(chunk []domain.BigDecimalInt, shared *cache.SharedView, p10Max domain.BigDecimalInt) (foldResult, *cache.WorkerCache) {
	worker, err := h.cache.NewWorker(shared, h.cfg.WorkerCacheSize)
	if err != nil {
		h.logger.Error(map[string]any{"error": err.Error()}, "failed to construct worker cache, falling back to uncached fold")
	}

	var out foldResult
	for _, c := range chunk {
		if !generator.IsPotentialSeed(c, p10Max) {
			continue
		}
		out.seedsTested++

		quick := h.engine.Iterate(c, quickFilterIterations)
		if quick.ReachedPalindrome {
			continue
		}
		if quick.FinalValue.BitLen()-c.BitLen() < quickFilterMinBitGrowth {
			continue
		}

		var result domain.IterationResult
		if worker != nil {
			result = h.engine.IterateWithCache(c, h.cfg.MaxIterations, worker)
		} else {
			result = h.engine.Iterate(c, h.cfg.MaxIterations)
		}

		if result.Iterations > out.bestIters {
			out.bestIters = result.Iterations
		}
		if fd := result.FinalDigits(); fd > out.bestDigits {
			out.bestDigits = fd
		}

		isRecord := result.ReachedPalindrome &&
			result.Iterations >= h.cfg.TargetIterations &&
			result.Iterations <= h.cfg.MaxIterations &&
			result.FinalDigits() >= h.cfg.TargetFinalDigits
		isPromising := result.ReachedPalindrome && result.Iterations >= 200

		if isRecord || isPromising {
			rc := domain.RecordCandidate{
				Number:      c.String(),
				Iterations:  result.Iterations,
				FinalDigits: result.FinalDigits(),
				FoundAt:     h.clock.Now(),
			}
			if isRecord {
				out.records = append(out.records, rc)
			}
			if isPromising {
				out.promising = append(out.promising, rc)
			}
		}
	}

	return out, worker
}

// reduce concatenates result lists, sums counters, and takes the max of
// bests, matching the pairwise-reducible contract in the concurrency model.
func reduce(results []foldResult) foldResult {
	var out foldResult
	for _, r := range results {
		out.records = append(out.records, r.records...)
		out.promising = append(out.promising, r.promising...)
		out.seedsTested += r.seedsTested
		if r.bestIters > out.bestIters {
			out.bestIters = r.bestIters
		}
		if r.bestDigits > out.bestDigits {
			out.bestDigits = r.bestDigits
		}
	}
	return out
}

// applyReduced folds the reduced batch result into the hunter's statistics
// and dispatches onRecord for every record-qualifying result. Cache merging
// has already happened in RunBatch by the time this runs.
func (h *RecordHunter) applyReduced(r foldResult, batchSize int) {
	h.stats.NumbersTested += uint64(batchSize)
	h.stats.SeedsTested += r.seedsTested
	h.stats.UpdateBest(r.bestIters, r.bestDigits)
	h.stats.CandidatesAbove200 = append(h.stats.CandidatesAbove200, r.promising...)
	h.stats.CacheHits, h.stats.CacheMisses = h.cache.Stats()

	for _, rc := range r.records {
		if h.onRecord != nil {
			h.onRecord(rc)
		}
	}
}

// Run drives the full state machine: Running -> (Batch -> Running)* ->
// (WidthAdvance -> Running)* -> Terminated. It blocks until the hunt
// exhausts max_digits (if configured), or ctx is cancelled between batches.
// There is no mid-batch cancellation; the current batch always finishes.
func (h *RecordHunter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.checkpoint()
			return nil
		default:
		}

		if !h.RunBatch() {
			advanced, err := h.advanceWidth()
			if err != nil {
				return err
			}
			if !advanced {
				h.checkpoint()
				return nil
			}
			continue
		}

		if h.cfg.CheckpointInterval > 0 && h.stats.NumbersTested%h.cfg.CheckpointInterval == 0 {
			h.checkpoint()
		}
		if h.stats.NumbersTested%100_000 == 0 {
			h.logProgress()
		}
	}
}

// advanceWidth transitions to width+1 when max_digits allows it, recording
// for the completed width the time elapsed since the statistics' StartTime
// (not the time spent on that width alone). It returns false when the
// hunt has reached max_digits (or max_digits is unset) and should terminate.
func (h *RecordHunter) advanceWidth() (bool, error) {
	if h.cfg.MaxDigits == 0 || h.width >= h.cfg.MaxDigits {
		return false, nil
	}
	elapsed := h.clock.Now().Sub(h.stats.StartTime)
	h.stats.RecordWidthCompletion(h.width, elapsed)

	// A fresh Generator carries a fresh dedup filter, so SmartRandom's
	// collision history never leaks across a width boundary.
	next, err := generator.New(h.gen.Mode(), h.width+1, "")
	if err != nil {
		return false, fmt.Errorf("advance to width %d: %w", h.width+1, err)
	}
	h.gen = next
	h.width++
	h.logger.Info(map[string]any{"width": h.width}, "advancing to next digit width")
	return true, nil
}

// checkpoint persists hunter state via the configured CheckpointFunc, if
// any; hunters built without one (e.g. in unit tests) are a no-op. Per
// spec.md §7, checkpoint I/O failures are logged and non-fatal: the hunt
// continues (or, at termination, still exits cleanly) rather than aborting.
func (h *RecordHunter) checkpoint() {
	if h.checkpointFn == nil {
		return
	}
	if err := h.checkpointFn(h); err != nil {
		h.logger.Error(map[string]any{"error": err.Error()}, "checkpoint save failed, continuing")
	}
}

// logProgress emits a structured progress line per the persistent-log-lines
// contract: width, numbers tested, seeds tested, cache hit rate, best
// iterations observed. Progress percentage is included only when max_digits
// is known.
func (h *RecordHunter) logProgress() {
	fields := map[string]any{
		"width":               h.width,
		"numbers_tested":      h.stats.NumbersTested,
		"seeds_tested":        h.stats.SeedsTested,
		"cache_hit_rate":      h.stats.HitRate(),
		"best_iterations":     h.stats.BestIterationsFound,
		"best_final_digits":   h.stats.BestFinalDigits,
	}
	if h.cfg.MaxDigits > 0 {
		fields["progress_pct"] = 100 * float64(h.width-h.cfg.MinDigits+1) / float64(h.cfg.MaxDigits-h.cfg.MinDigits+1)
	}
	h.logger.Info(fields, "hunt progress")
}

// partition splits items into n roughly-equal contiguous chunks; empty
// chunks are omitted so idle workers aren't spawned for tiny batches.
func partition(items []domain.BigDecimalInt, n int) [][]domain.BigDecimalInt {
	if n <= 0 {
		n = 1
	}
	if len(items) < n {
		n = len(items)
	}
	if n == 0 {
		return nil
	}
	size := (len(items) + n - 1) / n
	out := make([][]domain.BigDecimalInt, 0, n)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
