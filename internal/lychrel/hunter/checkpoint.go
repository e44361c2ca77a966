package hunter

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/cache"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/clock"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/log"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/config"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/generator"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/hunterrors"
)

// GeneratorState captures enough to reconstruct a generator at its current
// position.
type GeneratorState struct {
	Current string          `json:"current"`
	Digits  int             `json:"digits"`
	Mode    generator.Mode  `json:"mode"`
}

// StatisticsSnapshot mirrors domain.HuntStatistics but omits StartTime,
// which is reset to now on resume per spec.md §4.6.
type StatisticsSnapshot struct {
	NumbersTested       uint64                  `json:"numbers_tested"`
	SeedsTested         uint64                  `json:"seeds_tested"`
	CacheHits           uint64                  `json:"cache_hits"`
	CacheMisses         uint64                  `json:"cache_misses"`
	BestIterationsFound uint32                  `json:"best_iterations_found"`
	BestFinalDigits     int                     `json:"best_final_digits"`
	CandidatesAbove200  []domain.RecordCandidate `json:"candidates_above_200"`
	DigitsCompletedAt   map[int]time.Duration   `json:"digits_completed_at"`
	WidthsCompleted     []int                   `json:"widths_completed"`
}

// Checkpoint is the hunter-state artifact written alongside a companion
// cache file, per spec.md §4.6.
type Checkpoint struct {
	GeneratorState GeneratorState      `json:"generator_state"`
	Statistics     StatisticsSnapshot  `json:"statistics"`
	ThreadCacheFile string             `json:"thread_cache_file"`
	Timestamp      time.Time           `json:"timestamp"`
	ConfigSnapshot *config.HuntConfig  `json:"config_snapshot"`
}

// cacheFilePath derives the companion cache path from a checkpoint path,
// per the "<file>_cache.<ext>" convention.
func cacheFilePath(checkpointPath string) string {
	return checkpointPath + "_cache.json"
}

// SaveCheckpoint writes the checkpoint file and its companion cache file.
// Per spec.md, "write-then-rename is acceptable but not required"; a direct
// write suffices here since both files are independently re-derivable from
// hunter state on the next run.
func SaveCheckpoint(h *RecordHunter, path string) error {
	cacheFile := cacheFilePath(path)

	cp := Checkpoint{
		GeneratorState: GeneratorState{
			Current: h.gen.CurrentPosition(),
			Digits:  h.width,
			Mode:    h.gen.Mode(),
		},
		Statistics: StatisticsSnapshot{
			NumbersTested:       h.stats.NumbersTested,
			SeedsTested:         h.stats.SeedsTested,
			CacheHits:           h.stats.CacheHits,
			CacheMisses:         h.stats.CacheMisses,
			BestIterationsFound: h.stats.BestIterationsFound,
			BestFinalDigits:     h.stats.BestFinalDigits,
			CandidatesAbove200:  h.stats.CandidatesAbove200,
			DigitsCompletedAt:   h.stats.DigitsCompletedAt,
			WidthsCompleted:     h.stats.WidthsCompleted,
		},
		ThreadCacheFile: cacheFile,
		Timestamp:       h.clock.Now(),
		ConfigSnapshot:  h.cfg,
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", path, hunterrors.ErrIO)
	}

	if err := h.cache.Save(cacheFile); err != nil {
		return fmt.Errorf("save companion cache %s: %w", cacheFile, err)
	}

	h.logger.Info(map[string]any{"path": path, "numbers_tested": h.stats.NumbersTested}, "checkpoint saved")
	return nil
}

// LoadCheckpoint reads path and its companion cache file, reconstructing a
// generator at the stored position/width/mode and a ThreadCache populated
// from the cache file. Per spec.md §4.6, start_time is reset to the given
// clock's now; pre-resume elapsed time is carried via the checkpoint's own
// statistics fields. Per spec.md §7, a malformed companion cache file is
// non-fatal: it is discarded with a warning and the hunt resumes with an
// empty cache rather than aborting the whole resume.
func LoadCheckpoint(path string, c clock.Clock, logger log.Logger, cacheOpts cache.Options) (*Checkpoint, *generator.Generator, *cache.ThreadCache, *domain.HuntStatistics, error) {
	if logger == nil {
		logger = log.GetLogger()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("read checkpoint %s: %w", path, hunterrors.ErrIO)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("parse checkpoint %s: %w", path, hunterrors.ErrParse)
	}

	gen, err := generator.New(cp.GeneratorState.Mode, cp.GeneratorState.Digits, cp.GeneratorState.Current)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("reconstruct generator from checkpoint: %w", err)
	}

	loadedCache, err := cache.Load(cacheFilePath(path), cacheOpts)
	if err != nil {
		if !hunterrors.Is(err, hunterrors.ErrParse) {
			return nil, nil, nil, nil, fmt.Errorf("load companion cache: %w", err)
		}
		logger.Warn(map[string]any{"error": err.Error(), "path": cacheFilePath(path)},
			"companion cache file is malformed, discarding and resuming with an empty cache")
		loadedCache = cache.New(cacheOpts)
	}

	stats := domain.NewHuntStatistics(c.Now())
	stats.NumbersTested = cp.Statistics.NumbersTested
	stats.SeedsTested = cp.Statistics.SeedsTested
	stats.CacheHits = cp.Statistics.CacheHits
	stats.CacheMisses = cp.Statistics.CacheMisses
	stats.BestIterationsFound = cp.Statistics.BestIterationsFound
	stats.BestFinalDigits = cp.Statistics.BestFinalDigits
	stats.CandidatesAbove200 = cp.Statistics.CandidatesAbove200
	stats.DigitsCompletedAt = cp.Statistics.DigitsCompletedAt
	stats.WidthsCompleted = cp.Statistics.WidthsCompleted

	return &cp, gen, loadedCache, stats, nil
}
