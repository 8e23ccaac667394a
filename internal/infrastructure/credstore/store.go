package credstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/usage"
)

// Source looks up credential material.
type Source interface {
	Get(ctx context.Context, id, consumer string, required credentials.Capability) (*credentials.Credential, error)
}

// Ensure interface compliance
var (
	_ ports.CredentialStore = (*Store)(nil)
	_ Source                = (*FileSource)(nil)
)

// Store implements ports.CredentialStore over a Source and a usage repository.
type Store struct {
	source Source
	usage  ports.UsageRepository
	logger *slog.Logger
}

// NewStore creates a credential store. usage may be nil to drop usage facts.
func NewStore(source Source, usage ports.UsageRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{source: source, usage: usage, logger: logger}
}

// Lookup implements ports.CredentialStore.
func (s *Store) Lookup(ctx context.Context, id, consumer string, required credentials.Capability) (*credentials.Credential, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: %s (no credential source configured)", credentials.ErrNotFound, id)
	}
	cred, err := s.source.Get(ctx, id, consumer, required)
	if err != nil {
		s.logger.Debug("credential lookup failed", "credential", id, "consumer", consumer, "error", err)
		return nil, err
	}
	return cred, nil
}

// RecordFingerprint implements ports.CredentialStore.
func (s *Store) RecordFingerprint(ctx context.Context, record usage.Record) error {
	if s.usage == nil {
		return nil
	}
	if err := record.Validate(); err != nil {
		return err
	}
	created, err := s.usage.Save(ctx, record)
	if err != nil {
		return fmt.Errorf("recording usage of %s: %w", record.CredentialID, err)
	}
	if !created {
		s.logger.Debug("usage already recorded", "key", record.Key().String())
	}
	return nil
}
