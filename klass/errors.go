package klass

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCastTarget = errors.New("invalid cast target")
	ErrUnknownMember     = errors.New("unknown member")
	ErrNotCallable       = errors.New("member is not callable")
	ErrRecursionLimit    = errors.New("recursion limit exceeded")
)

// ConfigError reports an operation applied to a value of the wrong shape, such
// as casting onto something that is neither an object nor a class.
type ConfigError struct {
	Op     string
	Kind   ValueKind
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s (got %s)", e.Op, e.Reason, e.Kind)
}

// Unwrap lets callers match every ConfigError with ErrInvalidCastTarget.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidCastTarget
}
