package domain

import "time"

// RecordCandidate is a promising or record-qualifying seed surfaced by the
// hunter, retained for reporting and for the record-artifact file.
type RecordCandidate struct {
	Number      string    `json:"number"`
	Iterations  uint32    `json:"iterations"`
	FinalDigits int       `json:"final_digits"`
	FoundAt     time.Time `json:"found_at"`
}

// HuntStatistics aggregates counters for a running or completed hunt.
// The hunter main thread is the sole mutator (see concurrency model); no
// internal locking is required here.
type HuntStatistics struct {
	NumbersTested       uint64
	SeedsTested         uint64
	CacheHits           uint64
	CacheMisses         uint64
	BestIterationsFound uint32
	BestFinalDigits     int
	CandidatesAbove200  []RecordCandidate
	StartTime           time.Time

	// DigitsCompletedAt and WidthsCompleted supplement spec.md: per-width
	// completion wall-clock, used for throughput reporting across a
	// multi-width run.
	DigitsCompletedAt map[int]time.Duration
	WidthsCompleted   []int
}

// NewHuntStatistics returns a zero-valued HuntStatistics stamped with the
// given start time.
func NewHuntStatistics(start time.Time) *HuntStatistics {
	return &HuntStatistics{
		StartTime:         start,
		DigitsCompletedAt: make(map[int]time.Duration),
	}
}

// HitRate returns the cache hit rate in [0,1], or 0 if no lookups occurred.
func (s *HuntStatistics) HitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// RecordWidthCompletion appends digits to WidthsCompleted and stores the
// elapsed duration for that width, keyed by digit count.
func (s *HuntStatistics) RecordWidthCompletion(digits int, elapsed time.Duration) {
	s.WidthsCompleted = append(s.WidthsCompleted, digits)
	if s.DigitsCompletedAt == nil {
		s.DigitsCompletedAt = make(map[int]time.Duration)
	}
	s.DigitsCompletedAt[digits] = elapsed
}

// UpdateBest updates BestIterationsFound/BestFinalDigits if result improves
// on either, taking the max of bests as the hunter's reducer requires.
func (s *HuntStatistics) UpdateBest(iterations uint32, finalDigits int) {
	if iterations > s.BestIterationsFound {
		s.BestIterationsFound = iterations
	}
	if finalDigits > s.BestFinalDigits {
		s.BestFinalDigits = finalDigits
	}
}

// Merge folds another HuntStatistics (e.g. a worker's partial stats) into s,
// summing counters and taking the max of bests, per the reducer contract.
func (s *HuntStatistics) Merge(other *HuntStatistics) {
	if other == nil {
		return
	}
	s.NumbersTested += other.NumbersTested
	s.SeedsTested += other.SeedsTested
	s.CacheHits += other.CacheHits
	s.CacheMisses += other.CacheMisses
	s.UpdateBest(other.BestIterationsFound, other.BestFinalDigits)
	s.CandidatesAbove200 = append(s.CandidatesAbove200, other.CandidatesAbove200...)
}
