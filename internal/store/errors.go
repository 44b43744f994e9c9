package store

import "errors"

var (
	// ErrJobNotFound is returned when no descriptor exists for the given ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoJobAvailable signals an empty pending set. It is an empty-result
	// signal, not a failure; the HTTP layer turns it into {"job": null}.
	ErrNoJobAvailable = errors.New("no job available")

	// ErrClaimConflict is returned when a targeted claim loses the race:
	// the job exists but is no longer pending.
	ErrClaimConflict = errors.New("job already claimed")

	// ErrInvalidTransition is returned when a terminal transition is
	// attempted on a job that is not in the claimed state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IsDomainError reports whether err is one of the store's expected outcomes
// rather than a backing-store failure. Anything else is treated as
// retryable by the services.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, ErrNoJobAvailable) ||
		errors.Is(err, ErrClaimConflict) ||
		errors.Is(err, ErrInvalidTransition)
}
