package recurrence

import "errors"

var (
	// ErrInvalidArgument reports a caller contract violation such as a
	// non-positive occurrence cap or an inverted window.
	ErrInvalidArgument = errors.New("recurrence: invalid argument")

	// ErrInternalInvariant reports a validated rule that failed to produce a
	// next candidate. It indicates a bug, not bad input.
	ErrInternalInvariant = errors.New("recurrence: internal invariant violation")

	// ErrLimitExceeded reports that the occurrence cap was exhausted before the
	// requested date was reached.
	ErrLimitExceeded = errors.New("recurrence: occurrence limit exceeded")
)
