package generator

import "github.com/riftlab/lychrel-hunter/internal/lychrel/domain"

// IsOrbitRepresentative reports whether n is the canonical representative of
// its {n, reverse(n)} reverse-add orbit-equivalence pair: the arithmetically
// smaller of the two suffices, since both share the same next iterate.
// Palindromes are always representative.
//
// The fast path compares only the first and last decimal digits, which
// resolves the overwhelming majority of candidates without a full digit
// walk; only a tie on both ends falls back to full left-to-right
// comparison via ReverseDigits.
func IsOrbitRepresentative(n domain.BigDecimalInt) bool {
	first, last := n.FirstDigit(), n.LastDigit()
	if last > first {
		return true
	}
	if last < first {
		return false
	}
	return n.Cmp(n.ReverseDigits()) <= 0
}

// IsPotentialSeed is the hunter fold's admission check named in the
// generator/hunter contract: a candidate must belong to the current width
// (guards against a stray out-of-range value reaching the fold) and be the
// orbit-representative element of its reverse pair. p10Max is the
// generator's 10^(width-1) lower bound, accepted here so callers don't need
// to recompute it per candidate.
func IsPotentialSeed(n domain.BigDecimalInt, p10Max domain.BigDecimalInt) bool {
	if n.Cmp(p10Max) < 0 {
		return false
	}
	return IsOrbitRepresentative(n)
}
