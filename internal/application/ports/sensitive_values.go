package ports

// SensitiveValueProvider tracks and provides all sensitive values for protection.
// Each scope owns its own provider; providers are never shared across scopes.
type SensitiveValueProvider interface {
	// Track registers a sensitive value to be protected (masked). Empty values are ignored.
	Track(value string)

	// AllValues returns all tracked sensitive values.
	AllValues() []string
}
