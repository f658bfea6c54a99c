package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleDetected is matched by every CycleDetectedError.
var ErrCycleDetected = errors.New("dependency cycle detected")

// CycleDetectedError reports that a computation received a cyclic edge set.
// Cycle holds one witness path, first and last element equal.
type CycleDetectedError struct {
	Cycle  []string
	Sorted int
	Total  int
}

func (e *CycleDetectedError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s (%d of %d tasks sorted)", ErrCycleDetected.Error(), e.Sorted, e.Total)
	if len(e.Cycle) > 0 {
		msg += ": " + strings.Join(e.Cycle, " -> ")
	}
	return msg
}

func (e *CycleDetectedError) Unwrap() error { return ErrCycleDetected }
