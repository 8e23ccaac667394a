package binding

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateVariable indicates two bindings in one scope share a variable name.
	ErrDuplicateVariable = errors.New("duplicate variable")

	// ErrUnknownBindingType indicates no transform is registered for a binding type.
	ErrUnknownBindingType = errors.New("unknown binding type")

	// ErrRegistrySealed indicates registration was attempted after startup.
	ErrRegistrySealed = errors.New("binding registry is sealed")

	// ErrInvalidVariable indicates a variable name is not a valid environment key.
	ErrInvalidVariable = errors.New("invalid variable name")
)

// BindError wraps the first failure of a bind with the offending variable.
type BindError struct {
	Cause    error
	Variable string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("binding %s: %v", e.Variable, e.Cause)
}

func (e *BindError) Unwrap() error {
	return e.Cause
}

// NewBindError creates a BindError for variable.
func NewBindError(variable string, cause error) *BindError {
	return &BindError{Variable: variable, Cause: cause}
}

// ErrWorkspaceRequired indicates a binding type needs a workspace the scope does not have.
var ErrWorkspaceRequired = errors.New("binding type requires a workspace")
