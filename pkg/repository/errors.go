package repository

import (
	"github.com/i5heu/typecanon/pkg/model"
)

// ErrContractViolation is wrapped by every panic the repository raises,
// including those of its storage and vertex model.
var ErrContractViolation = model.ErrContractViolation

func violation(format string, args ...any) {
	model.Violation(format, args...)
}
