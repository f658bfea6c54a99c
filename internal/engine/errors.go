package engine

import "errors"

var (
	// ErrSnapshotTooLarge is returned when a snapshot exceeds Config limits.
	ErrSnapshotTooLarge = errors.New("snapshot too large")

	// ErrInvalidSnapshot is returned when a task fails input checks (a missing
	// or repeated id, an estimate outside [0, model.MaxEstimatedHours]) or the
	// snapshot would span more than model.MaxScheduleHours.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
