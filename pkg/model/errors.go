package model

import (
	"errors"
	"fmt"
)

// ErrContractViolation is wrapped by every panic raised when a caller breaks
// an input contract or a storage invariant fails. Such a panic must not be
// recovered and the operation retried: the input is deterministic and the
// violation would recur.
var ErrContractViolation = errors.New("typecanon: contract violation")

// Violation panics with an error wrapping ErrContractViolation.
func Violation(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...)))
}
