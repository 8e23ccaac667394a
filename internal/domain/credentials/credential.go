// Package credentials defines the credential model consumed by bindings:
// capabilities, stored credentials and their scope-lifetime resolution.
package credentials

import "strings"

// Capability names the set of fields a credential kind exposes.
type Capability string

const (
	// CapabilityUsernamePassword exposes a username and a password.
	CapabilityUsernamePassword Capability = "username+password"

	// CapabilitySecretText exposes a single opaque secret string.
	CapabilitySecretText Capability = "secret-text"

	// CapabilitySecretFile exposes a file name and secret file content.
	CapabilitySecretFile Capability = "secret-file"
)

// String returns the capability identifier.
func (c Capability) String() string {
	return string(c)
}

// IsValid reports whether c is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityUsernamePassword, CapabilitySecretText, CapabilitySecretFile:
		return true
	default:
		return false
	}
}

// ParseCapability parses a capability identifier, accepting a few common spellings.
func ParseCapability(s string) (Capability, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "username+password", "usernamepassword", "username_password":
		return CapabilityUsernamePassword, true
	case "secret-text", "string", "secret_text":
		return CapabilitySecretText, true
	case "secret-file", "file", "secret_file":
		return CapabilitySecretFile, true
	default:
		return "", false
	}
}

// Credential is the material a store returns for a lookup.
// Secret fields are held as *Secret so they can be zeroed after use.
type Credential struct {
	ID          string
	Kind        Capability
	Description string

	Username string
	// UsernameSecret marks the username itself as sensitive (masked when exposed).
	UsernameSecret bool
	Password       *Secret

	Secret *Secret

	FileName string
	Content  *Secret
}

// Has reports whether the credential kind satisfies the required capability.
func (c *Credential) Has(required Capability) bool {
	return c != nil && c.Kind == required
}

// Zero clears every secret field.
func (c *Credential) Zero() {
	if c == nil {
		return
	}
	c.Password.Zero()
	c.Secret.Zero()
	c.Content.Zero()
}

// Resolved is the scope-lifetime materialization of a credential handed to a transform.
// It is owned by the binder and dropped at scope exit.
type Resolved struct {
	*Credential
}

// NewResolved wraps a looked-up credential.
func NewResolved(c *Credential) *Resolved {
	return &Resolved{Credential: c}
}

// Drop zeroes the secret material and releases the credential.
func (r *Resolved) Drop() {
	if r == nil || r.Credential == nil {
		return
	}
	r.Credential.Zero()
	r.Credential = nil
}
