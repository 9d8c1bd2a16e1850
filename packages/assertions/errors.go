package assertions

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStatusMismatch matches any *StatusMismatchError via errors.Is.
	ErrStatusMismatch = errors.New("status code mismatch")
	// ErrBodyMismatch matches any *BodyMismatchError via errors.Is.
	ErrBodyMismatch = errors.New("response body mismatch")
)

// maxListedDifferences caps how many differences BodyMismatchError.Error lists.
const maxListedDifferences = 5

type StatusMismatchError struct {
	Expected int
	Actual   int
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("expected status %d, got %d", e.Expected, e.Actual)
}

func (e *StatusMismatchError) Is(target error) bool {
	return target == ErrStatusMismatch
}

type BodyMismatchError struct {
	Expected    any
	Actual      any
	Differences []Difference
}

func (e *BodyMismatchError) Error() string {
	if len(e.Differences) == 0 {
		return ErrBodyMismatch.Error()
	}

	parts := make([]string, 0, maxListedDifferences+1)
	for i, d := range e.Differences {
		if i == maxListedDifferences {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Differences)-i))
			break
		}
		parts = append(parts, d.String())
	}
	return fmt.Sprintf("%s: %s", ErrBodyMismatch, strings.Join(parts, "; "))
}

func (e *BodyMismatchError) Is(target error) bool {
	return target == ErrBodyMismatch
}
