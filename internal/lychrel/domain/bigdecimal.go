// Package domain holds the value types shared across the hunter: arbitrary
// precision decimal integers, per-orbit iteration outcomes, cached thread
// fates, and run-level statistics.
package domain

import (
	"fmt"
	"math/big"
)

// BigDecimalInt is a non-negative, arbitrary-precision decimal integer.
// It wraps math/big.Int: no pack example ships an arbitrary-precision
// decimal integer library (the closest relative, holiman/uint256, is a
// fixed 256-bit type and cannot represent a palindrome with 142+ decimal
// digits that keeps growing), so the standard library's big.Int is the
// correct tool here, not a stand-in for one.
type BigDecimalInt struct {
	v *big.Int
}

// Zero is the BigDecimalInt value 0.
var Zero = BigDecimalInt{v: big.NewInt(0)}

// FromString parses a non-negative decimal string into a BigDecimalInt.
// Leading zeros are tolerated and dropped; a sign or non-digit character
// is rejected.
func FromString(s string) (BigDecimalInt, error) {
	if s == "" {
		return BigDecimalInt{}, fmt.Errorf("empty decimal string")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return BigDecimalInt{}, fmt.Errorf("invalid decimal digit %q in %q", c, s)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return BigDecimalInt{}, fmt.Errorf("invalid decimal string %q", s)
	}
	return BigDecimalInt{v: v}, nil
}

// FromInt64 constructs a BigDecimalInt from a non-negative int64.
func FromInt64(n int64) BigDecimalInt {
	if n < 0 {
		n = 0
	}
	return BigDecimalInt{v: big.NewInt(n)}
}

// FromBigInt wraps an existing *big.Int. The caller must not mutate v
// afterward; BigDecimalInt values are treated as immutable.
func FromBigInt(v *big.Int) BigDecimalInt {
	if v == nil {
		return Zero
	}
	return BigDecimalInt{v: new(big.Int).Set(v)}
}

// String returns the canonical decimal representation, with no leading zeros.
func (b BigDecimalInt) String() string {
	if b.v == nil {
		return "0"
	}
	return b.v.String()
}

// DigitCount returns the number of decimal digits.
func (b BigDecimalInt) DigitCount() int {
	return len(b.String())
}

// FirstDigit returns the leading (most significant) decimal digit, 0-9.
func (b BigDecimalInt) FirstDigit() byte {
	s := b.String()
	return s[0] - '0'
}

// LastDigit returns the trailing (least significant) decimal digit, 0-9.
func (b BigDecimalInt) LastDigit() byte {
	s := b.String()
	return s[len(s)-1] - '0'
}

// Equal reports whether b and other represent the same integer.
func (b BigDecimalInt) Equal(other BigDecimalInt) bool {
	return b.Cmp(other) == 0
}

// Cmp compares b to other: -1 if b<other, 0 if equal, 1 if b>other.
func (b BigDecimalInt) Cmp(other BigDecimalInt) int {
	bv, ov := b.v, other.v
	if bv == nil {
		bv = big.NewInt(0)
	}
	if ov == nil {
		ov = big.NewInt(0)
	}
	return bv.Cmp(ov)
}

// Add returns b + other as a new BigDecimalInt.
func (b BigDecimalInt) Add(other BigDecimalInt) BigDecimalInt {
	bv, ov := b.v, other.v
	if bv == nil {
		bv = big.NewInt(0)
	}
	if ov == nil {
		ov = big.NewInt(0)
	}
	return BigDecimalInt{v: new(big.Int).Add(bv, ov)}
}

// ReverseDigits returns the integer whose decimal representation is the
// reverse of b's. Leading zeros introduced by the reversal (from trailing
// zeros in b) are dropped, e.g. reverse(100) = 1.
func (b BigDecimalInt) ReverseDigits() BigDecimalInt {
	s := b.String()
	rev := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		rev[i] = s[len(s)-1-i]
	}
	v, ok := new(big.Int).SetString(string(rev), 10)
	if !ok {
		// unreachable: rev is composed entirely of the original's decimal digits
		return Zero
	}
	return BigDecimalInt{v: v}
}

// IsPalindrome reports whether b equals its own digit-reversal. Every
// single-digit value, including 0, is a palindrome.
func (b BigDecimalInt) IsPalindrome() bool {
	return b.Equal(b.ReverseDigits())
}

// BitLen returns the number of bits required to represent b, used by the
// hunter's quick filter to measure sustained super-linear growth cheaply
// without comparing decimal digit counts directly.
func (b BigDecimalInt) BitLen() int {
	if b.v == nil {
		return 0
	}
	return b.v.BitLen()
}

// IsZero reports whether b is the value 0.
func (b BigDecimalInt) IsZero() bool {
	return b.v == nil || b.v.Sign() == 0
}
