package binding

import (
	"fmt"
	"sort"
	"sync"

	"github.com/reglet-dev/credbind/internal/domain/credentials"
)

// Descriptor describes a binding type for configuration and listing.
type Descriptor struct {
	Type        string
	DisplayName string
	Accepts     credentials.Capability
	// RequiresWorkspace declares that the transform needs a working directory.
	RequiresWorkspace bool
}

type registration struct {
	transform  Transform
	descriptor Descriptor
}

// Registry maps binding types to transforms.
// Types are registered once at startup; after Seal the registry is read-only.
type Registry struct {
	entries map[string]registration
	mu      sync.RWMutex
	sealed  bool
}

// NewRegistry creates a new, empty binding registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]registration),
	}
}

// Register adds a transform for desc.Type.
func (r *Registry) Register(desc Descriptor, transform Transform) error {
	if desc.Type == "" {
		return fmt.Errorf("binding type is required")
	}
	if transform == nil {
		return fmt.Errorf("binding type %s: transform is nil", desc.Type)
	}
	if !desc.Accepts.IsValid() {
		return fmt.Errorf("binding type %s: unknown capability %q", desc.Type, desc.Accepts)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %s: %w", desc.Type, ErrRegistrySealed)
	}
	if _, exists := r.entries[desc.Type]; exists {
		return fmt.Errorf("binding type %s already registered", desc.Type)
	}
	if desc.DisplayName == "" {
		desc.DisplayName = desc.Type
	}
	r.entries[desc.Type] = registration{descriptor: desc, transform: transform}
	return nil
}

// MustRegister registers or panics. Intended for static startup tables.
func (r *Registry) MustRegister(desc Descriptor, transform Transform) {
	if err := r.Register(desc, transform); err != nil {
		panic(err)
	}
}

// Seal forbids further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Lookup returns the transform and descriptor registered for bindingType.
func (r *Registry) Lookup(bindingType string) (Transform, Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[bindingType]
	if !ok {
		return nil, Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownBindingType, bindingType)
	}
	return reg.transform, reg.descriptor, nil
}

// RequiresWorkspace reports whether bindingType needs a working directory.
func (r *Registry) RequiresWorkspace(bindingType string) (bool, error) {
	_, desc, err := r.Lookup(bindingType)
	if err != nil {
		return false, err
	}
	return desc.RequiresWorkspace, nil
}

// Descriptors returns all registered descriptors sorted by type.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg.descriptor)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Type < out[j].Type
	})
	return out
}
