package generator

import (
	"errors"
	"fmt"
)

// TransientError marks a failure worth retrying: rate limits, overload,
// upstream 5xx. Anything not wrapped in it is treated as permanent and
// surfaces immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err (anywhere in its chain) is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ValidationFailure rejects a generated artifact at a named validation
// stage. It is permanent for the attempt that produced it but the unit as a
// whole may be regenerated.
type ValidationFailure struct {
	Stage   string // "parse", "scan", "verify"
	Reasons []string
}

func (e *ValidationFailure) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("validation failed at stage %q", e.Stage)
	}
	return fmt.Sprintf("validation failed at stage %q: %s", e.Stage, e.Reasons[0])
}
