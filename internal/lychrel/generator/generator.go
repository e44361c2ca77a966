// Package generator produces candidate seeds for a reverse-add hunt, one
// digit width at a time, in one of three modes.
package generator

import (
	"math/big"
	"math/rand/v2"
	"sync"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/generator/dedup"
)

// dedupCapacity and dedupFPRate size the SmartRandom dedup filter. A fresh
// filter is built per width (see New), so capacity only needs to cover one
// width's worth of draws before the hunt advances past it.
const (
	dedupCapacity = 10_000_000
	dedupFPRate   = 0.001
	maxRedraws    = 1000
)

// Mode tags which enumeration strategy a Generator uses.
type Mode string

const (
	Sequential   Mode = "sequential"
	SmartRandom  Mode = "smart_random"
	PatternBased Mode = "pattern_based"
)

// Generator yields orbit-unfiltered candidates within a single digit width.
// Filtering (IsOrbitRepresentative) is delegated to callers so it can run in
// parallel across a batch, per the hunter's fold stage.
type Generator struct {
	mu sync.Mutex

	mode  Mode
	width int

	p10Min *big.Int // 10^(width-1), inclusive lower bound
	p10Max *big.Int // 10^width, exclusive upper bound

	// position is the next Sequential/PatternBased candidate to emit; it is
	// not advanced in SmartRandom mode.
	position *big.Int
	// seen counts candidates handed out within this width (for SmartRandom,
	// continuing from the resume position); CurrentPosition reports it in
	// SmartRandom mode.
	seen *big.Int

	rng *rand.Rand

	// dedupFilter suppresses re-emitting a SmartRandom candidate already
	// drawn within this width; nil for Sequential/PatternBased, which
	// never repeat a candidate by construction.
	dedupFilter *dedup.Filter
}

// New constructs a Generator for the given digit width and mode, optionally
// resuming from a prior decimal-string position (empty string starts fresh).
func New(mode Mode, width int, resumePosition string) (*Generator, error) {
	if width < 1 {
		width = 1
	}
	min := pow10(width - 1)
	max := pow10(width)

	g := &Generator{
		mode:   mode,
		width:  width,
		p10Min: min,
		p10Max: max,
		seen:   big.NewInt(0),
		rng:    rand.New(rand.NewPCG(uint64(width), 0xC0FFEE)), //nolint:gosec // deterministic seed acceptable; uniqueness, not cryptographic unpredictability, is required here
	}
	if mode == SmartRandom {
		g.dedupFilter = dedup.New(dedupCapacity, dedupFPRate)
	}

	if resumePosition != "" {
		p, ok := new(big.Int).SetString(resumePosition, 10)
		if !ok {
			p = new(big.Int).Set(min)
		}
		g.position = p
		if mode == SmartRandom && ok {
			g.seen.Set(p)
		}
	} else {
		g.position = new(big.Int).Set(min)
	}
	return g, nil
}

// P10Max returns 10^(width-1), the lower bound of this generator's width —
// the p10_max helper the seed filter consults.
func (g *Generator) P10Max() domain.BigDecimalInt {
	return domain.FromBigInt(new(big.Int).Set(g.p10Min))
}

// Width returns the digit width this generator enumerates.
func (g *Generator) Width() int { return g.width }

// Mode returns the enumeration strategy in use.
func (g *Generator) Mode() Mode { return g.mode }

// CurrentPosition returns the decimal-string position to resume from:
// for Sequential/PatternBased, the next value to emit; for SmartRandom, the
// number of draws made so far within this width.
func (g *Generator) CurrentPosition() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.mode {
	case SmartRandom:
		return g.seen.String()
	default:
		return g.position.String()
	}
}

// Exhausted reports whether this width has nothing left to yield.
func (g *Generator) Exhausted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.exhaustedLocked()
}

func (g *Generator) exhaustedLocked() bool {
	switch g.mode {
	case SmartRandom:
		return false // sampling with replacement never exhausts
	default:
		return g.position.Cmp(g.p10Max) >= 0
	}
}

// NextRawBatch returns up to n un-filtered candidates from this width, or an
// empty slice if the width is already exhausted. Filtering is the caller's
// responsibility (see IsOrbitRepresentative), so parallel workers can apply
// it independently across the batch.
func (g *Generator) NextRawBatch(n int) []domain.BigDecimalInt {
	if n <= 0 {
		return nil
	}
	switch g.mode {
	case SmartRandom:
		return g.nextSmartRandomBatch(n)
	default:
		return g.nextSequentialBatch(n)
	}
}

func (g *Generator) nextSequentialBatch(n int) []domain.BigDecimalInt {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]domain.BigDecimalInt, 0, n)
	for i := 0; i < n; i++ {
		if g.exhaustedLocked() {
			break
		}
		out = append(out, domain.FromBigInt(new(big.Int).Set(g.position)))
		g.position.Add(g.position, big.NewInt(1))
		g.seen.Add(g.seen, big.NewInt(1))
	}
	return out
}

func (g *Generator) nextSmartRandomBatch(n int) []domain.BigDecimalInt {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]domain.BigDecimalInt, 0, n)
	digits := make([]byte, g.width)
	for i := 0; i < n; i++ {
		for retry := 0; ; retry++ {
			digits[0] = byte('1' + g.rng.IntN(9))
			for d := 1; d < g.width; d++ {
				digits[d] = byte('0' + g.rng.IntN(10))
			}
			if retry < maxRedraws && g.dedupFilter.SeenOrMark(digits) {
				continue
			}
			break
		}
		v, _ := new(big.Int).SetString(string(digits), 10)
		out = append(out, domain.FromBigInt(v))
		g.seen.Add(g.seen, big.NewInt(1))
	}
	return out
}

func pow10(exp int) *big.Int {
	if exp <= 0 {
		return big.NewInt(1)
	}
	ten := big.NewInt(10)
	return new(big.Int).Exp(ten, big.NewInt(int64(exp)), nil)
}
