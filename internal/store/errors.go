package store

import "errors"

var (
	// ErrDuplicateExecution is returned by Begin when a task log with the
	// same job id already exists, running or completed.
	ErrDuplicateExecution = errors.New("duplicate execution")

	// ErrInvalidTransition is returned by Complete when the task log does
	// not exist or is not currently running.
	ErrInvalidTransition = errors.New("invalid task log transition")

	// ErrStaleUpdate is returned by SetStatus when the task changed since
	// it was read.
	ErrStaleUpdate = errors.New("task was modified concurrently")
)
