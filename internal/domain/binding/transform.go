package binding

import (
	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

// TransformConfig carries the per-scope context a transform may need.
type TransformConfig struct {
	Options   map[string]string
	Workspace string
	ScopeID   values.ScopeID
}

// Option returns the named option or def when it is unset.
func (c TransformConfig) Option(name, def string) string {
	if v, ok := c.Options[name]; ok && v != "" {
		return v
	}
	return def
}

// Value is one exposed value. Suffix is appended to the binding variable
// unless Name overrides it entirely.
type Value struct {
	Secret *credentials.Secret
	Suffix string
	Name   string
	// Public values are exposed without being masked, e.g. a file path.
	Public bool
}

// Output is the ordered result of applying a transform.
type Output struct {
	// Cleanup releases anything the transform created, such as workspace files.
	Cleanup func() error
	Values  []Value
	// Masks holds material that is not exposed as a variable but must be masked.
	Masks []*credentials.Secret
}

// Transform converts a resolved credential into exposed values.
// Implementations must be deterministic for a given credential and config.
type Transform interface {
	Apply(resolved *credentials.Resolved, cfg TransformConfig) (*Output, error)
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(resolved *credentials.Resolved, cfg TransformConfig) (*Output, error)

// Apply calls f.
func (f TransformFunc) Apply(resolved *credentials.Resolved, cfg TransformConfig) (*Output, error) {
	return f(resolved, cfg)
}

// Single builds the common single-unnamed-value output.
func Single(value string) *Output {
	return &Output{Values: []Value{{Secret: credentials.NewSecret(value)}}}
}

// Discard zeroes every secret the output holds and runs its cleanup.
func (o *Output) Discard() {
	if o == nil {
		return
	}
	for _, v := range o.Values {
		v.Secret.Zero()
	}
	for _, m := range o.Masks {
		m.Zero()
	}
	if o.Cleanup != nil {
		_ = o.Cleanup()
	}
}
