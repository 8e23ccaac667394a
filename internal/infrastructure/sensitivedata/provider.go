// Package sensitivedata keeps secret values out of scope output and logs:
// a scope-local registry of tracked values, a streaming output masker,
// a masking slog handler and error scrubbing.
package sensitivedata

import (
	"sort"
	"sync"
)

// Provider implements ports.SensitiveValueProvider.
// It maintains a thread-safe registry of sensitive values for one scope.
type Provider struct {
	seen   map[string]struct{}
	values []string
	mu     sync.RWMutex
}

// NewProvider creates a new sensitive data provider.
func NewProvider() *Provider {
	return &Provider{
		seen:   make(map[string]struct{}),
		values: make([]string, 0, 8),
	}
}

// Track registers a sensitive value to be protected.
func (p *Provider) Track(value string) {
	if value == "" {
		return // Masking an empty value would mask everything
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[value]; ok {
		return
	}
	p.seen[value] = struct{}{}
	p.values = append(p.values, value)
}

// AllValues returns all tracked sensitive values, longest first.
func (p *Provider) AllValues() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Return a copy to avoid race conditions if caller modifies the slice
	result := make([]string, len(p.values))
	copy(result, p.values)
	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i]) > len(result[j])
	})
	return result
}
