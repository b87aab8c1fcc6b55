package schedule

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the parent of every argument validation error
// returned by this package.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidRange      = fmt.Errorf("%w: start is after end", ErrInvalidArgument)
	ErrBeforeEpoch       = fmt.Errorf("%w: date precedes the epoch", ErrInvalidArgument)
	ErrNotEventDate      = fmt.Errorf("%w: not an event date", ErrInvalidArgument)
	ErrInHiatus          = fmt.Errorf("%w: date is during a hiatus", ErrInvalidArgument)
	ErrNonPositiveOffset = fmt.Errorf("%w: offset is less than 1", ErrInvalidArgument)
	ErrInvalidHiatus     = fmt.Errorf("%w: invalid hiatus list", ErrInvalidArgument)
	ErrInvalidEpoch      = fmt.Errorf("%w: invalid epoch", ErrInvalidArgument)
)

// argumentError wraps sentinel with a detail message.
func argumentError(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
