// Package usage defines the usage fact emitted when a scope consumes a credential.
package usage

import (
	"fmt"
	"time"

	"github.com/reglet-dev/credbind/internal/domain/values"
)

// Record states that a credential was consumed by a consumer during one scope instance.
// It never carries secret material.
type Record struct {
	RecordedAt   time.Time      `json:"recorded_at" yaml:"recorded_at"`
	CredentialID string         `json:"credential_id" yaml:"credential_id"`
	ConsumerID   string         `json:"consumer_id" yaml:"consumer_id"`
	ScopeID      values.ScopeID `json:"scope_id" yaml:"scope_id"`
}

// NewRecord creates a record stamped with the current time.
func NewRecord(credentialID, consumerID string, scope values.ScopeID) Record {
	return Record{
		CredentialID: credentialID,
		ConsumerID:   consumerID,
		ScopeID:      scope,
		RecordedAt:   time.Now().UTC(),
	}
}

// Key identifies the (credential, consumer, scope) triple that idempotence is defined over.
type Key struct {
	CredentialID string
	ConsumerID   string
	ScopeID      values.ScopeID
}

// Key returns the idempotence key of the record.
func (r Record) Key() Key {
	return Key{CredentialID: r.CredentialID, ConsumerID: r.ConsumerID, ScopeID: r.ScopeID}
}

// String renders the key for use as a storage key.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.CredentialID, k.ConsumerID, k.ScopeID.String())
}

// Validate checks the record has every identifying field.
func (r Record) Validate() error {
	if r.CredentialID == "" {
		return fmt.Errorf("usage record: credential id is required")
	}
	if r.ConsumerID == "" {
		return fmt.Errorf("usage record: consumer id is required")
	}
	if r.ScopeID.IsZero() {
		return fmt.Errorf("usage record: scope id is required")
	}
	return nil
}
