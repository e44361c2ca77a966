// Package engine implements the reverse-add iteration at the heart of a
// Lychrel hunt: repeatedly replace n with n + reverse(n) until a decimal
// palindrome appears or a bound is reached.
package engine

import (
	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
)

// Cache is the subset of ThreadCache the engine consults. Defined here
// (rather than imported from the cache package) to avoid a dependency
// cycle: the cache package never needs to know about the engine.
type Cache interface {
	Lookup(n domain.BigDecimalInt) (domain.ThreadInfo, bool)
	ShouldCache(iterations uint32) bool
	AddThread(path []domain.BigDecimalInt, base uint32, reached bool, maxTested uint32, finalDigits int, source string)
}

// Engine runs the reverse-add process for a single orbit at a time. It
// keeps no orbit state between calls; its fields only configure how cache
// admissions are made.
type Engine struct {
	// AdmissionPrefixLimit bounds how many intermediate values are kept in
	// the private path buffer for cache admission (default 50-100 per
	// spec.md §3).
	AdmissionPrefixLimit int
	// Source tags every thread this Engine admits to the cache, recording
	// whether the admitting run was ordinary hunting or the warmup
	// pre-pass. Callers running a warmup sweep set this to
	// domain.SourceWarmup before calling IterateWithCache.
	Source string
}

// New returns an Engine with the given admission prefix limit, tagging
// admitted threads as domain.SourceSeed. Set the Source field directly to
// tag a different admission context (e.g. warmup).
func New(admissionPrefixLimit int) *Engine {
	if admissionPrefixLimit <= 0 {
		admissionPrefixLimit = 100
	}
	return &Engine{AdmissionPrefixLimit: admissionPrefixLimit, Source: domain.SourceSeed}
}

// Iterate runs the reverse-add loop from start for up to maxIterations
// steps, with no cache consultation.
func (e *Engine) Iterate(start domain.BigDecimalInt, maxIterations uint32) domain.IterationResult {
	current := start
	if current.IsPalindrome() {
		return domain.NewIterationResult(start, 0, true, &current)
	}
	var i uint32
	for {
		current = current.Add(current.ReverseDigits())
		i++
		if current.IsPalindrome() {
			return domain.NewIterationResult(start, i, true, &current)
		}
		if i == maxIterations {
			return domain.NewIterationResult(start, i, false, &current)
		}
	}
}

// IterateWithCache runs the same loop as Iterate, but consults cache before
// each arithmetic step so that an orbit merging into one already explored
// can short-circuit to the known terminus. Every intermediate value visited
// is recorded in a bounded path buffer; on natural termination (palindrome
// or exhaustion), if the cache's admission policy accepts this run length,
// the whole prefix is admitted to the cache in one call.
func (e *Engine) IterateWithCache(start domain.BigDecimalInt, maxIterations uint32, cache Cache) domain.IterationResult {
	current := start
	path := make([]domain.BigDecimalInt, 0, e.AdmissionPrefixLimit)
	path = append(path, current)

	if current.IsPalindrome() {
		return domain.NewIterationResult(start, 0, true, &current)
	}

	var i uint32
	for {
		if info, ok := cache.Lookup(current); ok {
			iterations := info.IterationsToTerminus(i)
			finalDigits := info.FinalDigits
			if !info.ReachedPalindrome {
				finalDigits = 0
			}
			return domain.NewCachedIterationResult(start, iterations, info.ReachedPalindrome, finalDigits)
		}

		current = current.Add(current.ReverseDigits())
		i++
		if len(path) < e.AdmissionPrefixLimit {
			path = append(path, current)
		}

		if current.IsPalindrome() {
			e.admit(cache, path, i, true, i, current.DigitCount())
			return domain.NewIterationResult(start, i, true, &current)
		}
		if i == maxIterations {
			e.admit(cache, path, i, false, i, 0)
			return domain.NewIterationResult(start, i, false, &current)
		}
	}
}

// admit writes the observed path prefix into the cache if should_cache
// holds for the number of iterations taken.
func (e *Engine) admit(cache Cache, path []domain.BigDecimalInt, iterations uint32, reached bool, maxTested uint32, finalDigits int) {
	if len(path) == 0 {
		return
	}
	if !cache.ShouldCache(iterations) {
		return
	}
	cache.AddThread(path, 0, reached, maxTested, finalDigits, e.Source)
}
