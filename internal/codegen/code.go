// Package codegen allocates human-readable project codes of the form
// PREFIX-NNN. Allocation is serialized per prefix by a locked sentinel row so
// concurrent callers never receive the same code.
package codegen

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidPrefix = errors.New("prefix must be 2-5 uppercase letters")
	// ErrConflict marks an error as retryable contention.
	ErrConflict            = errors.New("code allocation conflict")
	ErrAllocationExhausted = errors.New("code allocation retries exhausted")
)

var prefixPattern = regexp.MustCompile(`^[A-Z]{2,5}$`)

func ValidatePrefix(prefix string) error {
	if !prefixPattern.MatchString(prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return nil
}

func Format(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// ParseSuffix extracts the sequence number of code. It reports false when the
// code does not belong to prefix or its suffix is not at least three digits.
func ParseSuffix(prefix, code string) (int, bool) {
	suffix, ok := strings.CutPrefix(code, prefix+"-")
	if !ok || len(suffix) < 3 {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Next returns the code following latest. An empty or malformed latest
// restarts numbering at 1.
func Next(prefix, latest string) string {
	n, ok := ParseSuffix(prefix, latest)
	if !ok {
		return Format(prefix, 1)
	}
	return Format(prefix, n+1)
}
