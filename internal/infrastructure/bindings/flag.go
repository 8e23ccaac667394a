package bindings

import (
	"fmt"
	"strings"

	"github.com/reglet-dev/credbind/internal/domain/binding"
)

// ParseFlag parses VAR=type:credentialId. The credential id may itself
// contain ':'; only the first one separates the type.
func ParseFlag(s string) (binding.Binding, error) {
	variable, rest, ok := strings.Cut(s, "=")
	if !ok {
		return binding.Binding{}, fmt.Errorf("invalid binding %q: expected VAR=type:credentialId", s)
	}
	bindingType, credentialID, ok := strings.Cut(rest, ":")
	if !ok || bindingType == "" || credentialID == "" {
		return binding.Binding{}, fmt.Errorf("invalid binding %q: expected VAR=type:credentialId", s)
	}
	return binding.New(variable, credentialID, bindingType)
}

// ParseFlags parses every value of a repeated --bind flag.
func ParseFlags(values []string) ([]binding.Binding, error) {
	out := make([]binding.Binding, 0, len(values))
	for _, v := range values {
		b, err := ParseFlag(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
