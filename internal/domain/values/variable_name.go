package values

import (
	"fmt"
	"regexp"
	"strings"
)

// Environment variable names: letter or underscore, then letters, digits, underscores.
var variableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// VariableName is a validated environment variable name.
type VariableName struct {
	value string
}

// NewVariableName creates a VariableName with validation
func NewVariableName(name string) (VariableName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return VariableName{}, fmt.Errorf("variable name cannot be empty")
	}
	if !variableNamePattern.MatchString(name) {
		return VariableName{}, fmt.Errorf("invalid variable name %q: must match %s", name, variableNamePattern.String())
	}
	return VariableName{value: name}, nil
}

// MustNewVariableName creates a VariableName or panics
func MustNewVariableName(name string) VariableName {
	vn, err := NewVariableName(name)
	if err != nil {
		panic(err)
	}
	return vn
}

// WithSuffix appends a transform suffix such as "_USR".
func (v VariableName) WithSuffix(suffix string) VariableName {
	return VariableName{value: v.value + suffix}
}

// String returns the string representation
func (v VariableName) String() string {
	return v.value
}

// IsEmpty returns true if this is the zero value
func (v VariableName) IsEmpty() bool {
	return v.value == ""
}

// Equals checks if two variable names are equal
func (v VariableName) Equals(other VariableName) bool {
	return v.value == other.value
}
