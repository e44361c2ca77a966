package domain

// IterationResult is the outcome of evaluating one reverse-add orbit,
// either by direct iteration or via a cache-consulted shortcut.
type IterationResult struct {
	Start             BigDecimalInt
	Iterations        uint32
	ReachedPalindrome bool
	// FinalValue is absent when the result was produced from a cache hit;
	// the caller does not need the terminal value to decide record status,
	// only its iteration count and (when reached) its digit count.
	FinalValue       *BigDecimalInt
	PotentialLychrel bool
	// FinalDigitsHint carries the terminal palindrome's digit count when
	// FinalValue is nil (cache-hit path), so FinalDigits() still works.
	FinalDigitsHint int
}

// NewIterationResult builds an IterationResult, enforcing the invariant
// PotentialLychrel = !ReachedPalindrome.
func NewIterationResult(start BigDecimalInt, iterations uint32, reached bool, final *BigDecimalInt) IterationResult {
	r := IterationResult{
		Start:             start,
		Iterations:        iterations,
		ReachedPalindrome: reached,
		FinalValue:        final,
		PotentialLychrel:  !reached,
	}
	if final != nil {
		r.FinalDigitsHint = final.DigitCount()
	}
	return r
}

// NewCachedIterationResult builds an IterationResult for a cache-hit
// termination, where only the final digit count (not the value) is known.
func NewCachedIterationResult(start BigDecimalInt, iterations uint32, reached bool, finalDigits int) IterationResult {
	return IterationResult{
		Start:             start,
		Iterations:        iterations,
		ReachedPalindrome: reached,
		FinalValue:        nil,
		PotentialLychrel:  !reached,
		FinalDigitsHint:   finalDigits,
	}
}

// FinalDigits returns the digit count of the terminal palindrome, whether
// or not the concrete FinalValue was retained.
func (r IterationResult) FinalDigits() int {
	if r.FinalValue != nil {
		return r.FinalValue.DigitCount()
	}
	return r.FinalDigitsHint
}
