// Package hunterrors defines the hunter's error taxonomy: parse failures in
// checkpoint/cache files, I/O failures, and configuration errors.
package hunterrors

import "errors"

var (
	// ErrParse indicates a malformed decimal string or malformed JSON in a
	// checkpoint or cache file.
	ErrParse = errors.New("parse error")

	// ErrIO indicates a filesystem read/write failure.
	ErrIO = errors.New("io error")

	// ErrConfig indicates an invalid HuntConfig: max_iterations <
	// target_iterations, min_digits < 1, or cache_size = 0 with warmup enabled.
	ErrConfig = errors.New("config error")
)

// Is reports whether err wraps target, delegating to the standard errors.Is.
// Kept as a thin alias so callers only need to import this package when
// checking hunter error kinds.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
