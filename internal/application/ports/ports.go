// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"
	"io"

	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/usage"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

// CredentialStore is the external credential store.
// Implementations own access control and usage persistence.
type CredentialStore interface {
	// Lookup returns the credential with id for consumer if it provides the
	// required capability. Errors wrap credentials.ErrNotFound,
	// credentials.ErrAccessDenied or credentials.ErrCapabilityMismatch.
	// The returned credential is owned by the caller, which zeroes it.
	Lookup(ctx context.Context, id, consumer string, required credentials.Capability) (*credentials.Credential, error)

	// RecordFingerprint persists a usage fact. It must not store secret material.
	RecordFingerprint(ctx context.Context, record usage.Record) error
}

// UsageRepository persists usage records.
type UsageRepository interface {
	// Save stores the record. It returns false when a record with the same
	// (credential, consumer, scope) triple already exists.
	Save(ctx context.Context, record usage.Record) (bool, error)

	// FindByCredential returns the newest records for a credential, newest first.
	FindByCredential(ctx context.Context, credentialID string, limit int) ([]usage.Record, error)

	// FindByScope returns every record emitted by one scope instance.
	FindByScope(ctx context.Context, scope values.ScopeID) ([]usage.Record, error)
}

// ScopeExecutor runs the work of a scope. It is supplied by the caller; the
// core never runs commands itself. All scope output must go through stdout
// and stderr so it is masked.
type ScopeExecutor interface {
	Run(ctx context.Context, env map[string]string, stdout, stderr io.Writer) error
}

// ScopeExecutorFunc adapts a function to ScopeExecutor.
type ScopeExecutorFunc func(ctx context.Context, env map[string]string, stdout, stderr io.Writer) error

// Run calls f.
func (f ScopeExecutorFunc) Run(ctx context.Context, env map[string]string, stdout, stderr io.Writer) error {
	return f(ctx, env, stdout, stderr)
}

// UsageRecorder is the part of the credential store the usage tracker writes to.
type UsageRecorder interface {
	RecordFingerprint(ctx context.Context, record usage.Record) error
}
