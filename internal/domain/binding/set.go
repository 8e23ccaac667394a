package binding

import (
	"errors"
	"fmt"
	"sort"

	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

type boundVariable struct {
	secret *credentials.Secret
	name   string
	public bool
}

// Set is the resolved binding set of one scope: variable name to exposed value,
// plus every raw secret that has to be masked. It is not safe for concurrent mutation.
type Set struct {
	names     map[string]struct{}
	vars      []boundVariable
	masks     []*credentials.Secret
	cleanups  []func() error
	scope     values.ScopeID
	destroyed bool
}

// NewSet creates an empty set for scope.
func NewSet(scope values.ScopeID) *Set {
	return &Set{
		scope: scope,
		names: make(map[string]struct{}),
	}
}

// ScopeID returns the owning scope.
func (s *Set) ScopeID() values.ScopeID {
	return s.scope
}

// AddOutput merges a transform output bound to base. Final variable names must be unique.
// On error nothing from out is added; the caller still owns out.
func (s *Set) AddOutput(base values.VariableName, out *Output) error {
	if s.destroyed {
		return fmt.Errorf("binding set for scope %s already destroyed", s.scope)
	}

	pending := make([]boundVariable, 0, len(out.Values))
	local := make(map[string]struct{}, len(out.Values))
	for _, v := range out.Values {
		name := base.WithSuffix(v.Suffix).String()
		if v.Name != "" {
			vn, err := values.NewVariableName(v.Name)
			if err != nil {
				return NewBindError(base.String(), fmt.Errorf("%w: %v", ErrInvalidVariable, err))
			}
			name = vn.String()
		}
		if _, dup := s.names[name]; dup {
			return NewBindError(name, ErrDuplicateVariable)
		}
		if _, dup := local[name]; dup {
			return NewBindError(name, ErrDuplicateVariable)
		}
		local[name] = struct{}{}
		pending = append(pending, boundVariable{name: name, secret: v.Secret, public: v.Public})
	}

	for _, bv := range pending {
		s.names[bv.name] = struct{}{}
		s.vars = append(s.vars, bv)
	}
	s.masks = append(s.masks, out.Masks...)
	if out.Cleanup != nil {
		s.cleanups = append(s.cleanups, out.Cleanup)
	}
	return nil
}

// Len returns the number of bound variables.
func (s *Set) Len() int {
	return len(s.vars)
}

// Variables returns every bound variable name in binding order.
func (s *Set) Variables() []string {
	out := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		out = append(out, v.name)
	}
	return out
}

// SensitiveVariables returns the sorted names whose values are masked.
func (s *Set) SensitiveVariables() []string {
	out := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		if !v.public {
			out = append(out, v.name)
		}
	}
	sort.Strings(out)
	return out
}

// Environment returns the variable map to install into the scope.
func (s *Set) Environment() map[string]string {
	env := make(map[string]string, len(s.vars))
	for _, v := range s.vars {
		env[v.name] = v.secret.Reveal()
	}
	return env
}

// Secrets returns the distinct, non-empty raw strings that must be masked,
// longest first so overlapping secrets mask fully.
func (s *Set) Secrets() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(sec *credentials.Secret) {
		if sec.IsEmpty() {
			return
		}
		v := sec.Reveal()
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range s.vars {
		if !v.public {
			add(v.secret)
		}
	}
	for _, m := range s.masks {
		add(m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}

// Destroy runs transform cleanups and zeroes every held secret. It is idempotent.
func (s *Set) Destroy() error {
	if s.destroyed {
		return nil
	}
	s.destroyed = true

	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	for _, v := range s.vars {
		v.secret.Zero()
	}
	for _, m := range s.masks {
		m.Zero()
	}
	s.vars = nil
	s.masks = nil
	s.cleanups = nil
	s.names = make(map[string]struct{})
	return errors.Join(errs...)
}

// Destroyed reports whether Destroy has run.
func (s *Set) Destroyed() bool {
	return s.destroyed
}
