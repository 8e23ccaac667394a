// Package binding defines how a credential is exposed to an execution scope:
// binding declarations, the transform contract, the type registry and the
// resolved per-scope binding set.
package binding

import (
	"fmt"

	"github.com/reglet-dev/credbind/internal/domain/values"
)

// Binding pairs a variable name with a credential reference and a binding type.
type Binding struct {
	// Options are passed through to the transform as TransformConfig.Options.
	Options      map[string]string
	CredentialID string
	Type         string
	Variable     values.VariableName
}

// New validates and creates a Binding.
func New(variable, credentialID, bindingType string) (Binding, error) {
	vn, err := values.NewVariableName(variable)
	if err != nil {
		return Binding{}, fmt.Errorf("%w: %v", ErrInvalidVariable, err)
	}
	if credentialID == "" {
		return Binding{}, fmt.Errorf("binding %s: credential id is required", vn)
	}
	if bindingType == "" {
		return Binding{}, fmt.Errorf("binding %s: binding type is required", vn)
	}
	return Binding{
		Variable:     vn,
		CredentialID: credentialID,
		Type:         bindingType,
	}, nil
}

// MustNew creates a Binding or panics (for tests only)
func MustNew(variable, credentialID, bindingType string) Binding {
	b, err := New(variable, credentialID, bindingType)
	if err != nil {
		panic(err)
	}
	return b
}

// WithOptions returns a copy of b carrying the given transform options.
func (b Binding) WithOptions(opts map[string]string) Binding {
	b.Options = make(map[string]string, len(opts))
	for k, v := range opts {
		b.Options[k] = v
	}
	return b
}

// CheckUnique returns ErrDuplicateVariable for the first repeated variable name.
func CheckUnique(bindings []Binding) error {
	seen := make(map[string]struct{}, len(bindings))
	for _, b := range bindings {
		name := b.Variable.String()
		if _, ok := seen[name]; ok {
			return NewBindError(name, ErrDuplicateVariable)
		}
		seen[name] = struct{}{}
	}
	return nil
}
