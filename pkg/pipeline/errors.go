package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrConfigMustBeSet  = errors.New("config must be set")
	ErrInvokerMustBeSet = errors.New("invoker must be set")
	ErrTypeMismatch     = errors.New("type mismatch")
)

// TypeMismatchError is returned when the execution list is neither a string nor a list of strings.
type TypeMismatchError struct {
	Key string
	Got string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: expected a comma-separated string or a list of strings, got %s", e.Key, ErrTypeMismatch, e.Got)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
