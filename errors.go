package tierq

import "errors"

var (
	// Not found errors.
	ErrJobNotFound = errors.New("tierq: job not found")

	// State errors.
	ErrInvalidTransition = errors.New("tierq: invalid state transition")
	ErrInvalidPriority   = errors.New("tierq: invalid priority")

	// ErrCancelled is the distinguished cancellation fault. It is a
	// control-flow signal, not a true error: the executor returns it
	// when a job's cancellation token is triggered, and the manager
	// swallows it after confirming the job is indeed Cancelled.
	ErrCancelled = errors.New("tierq: job cancelled")

	// ErrInvariant marks a violated internal invariant. Errors wrapping
	// it indicate a bug in the caller or in the manager itself and
	// should be treated as unrecoverable.
	ErrInvariant = errors.New("tierq: invariant violation")
)
