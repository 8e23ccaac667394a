// Package memory provides in-memory implementations of domain repositories.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/domain/usage"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

// Ensure interface compliance
var _ ports.UsageRepository = (*UsageRepository)(nil)

// UsageRepository is an in-memory implementation of ports.UsageRepository.
// Useful for testing and ephemeral storage.
type UsageRepository struct {
	records map[usage.Key]usage.Record
	mu      sync.RWMutex
}

// NewUsageRepository creates a new in-memory repository.
func NewUsageRepository() *UsageRepository {
	return &UsageRepository{
		records: make(map[usage.Key]usage.Record),
	}
}

// Save stores a usage record unless its triple is already present.
func (r *UsageRepository) Save(_ context.Context, record usage.Record) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := record.Key()
	if _, exists := r.records[key]; exists {
		return false, nil
	}
	r.records[key] = record
	return true, nil
}

// FindByCredential retrieves recent records for a credential, newest first.
func (r *UsageRepository) FindByCredential(_ context.Context, credentialID string, limit int) ([]usage.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []usage.Record
	for _, rec := range r.records {
		if rec.CredentialID == credentialID {
			matches = append(matches, rec)
		}
	}
	sortNewestFirst(matches)

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// FindByScope retrieves every record emitted by one scope instance.
func (r *UsageRepository) FindByScope(_ context.Context, scope values.ScopeID) ([]usage.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []usage.Record
	for _, rec := range r.records {
		if rec.ScopeID.Equals(scope) {
			matches = append(matches, rec)
		}
	}
	sortNewestFirst(matches)
	return matches, nil
}

func sortNewestFirst(records []usage.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].RecordedAt.Equal(records[j].RecordedAt) {
			return records[i].Key().String() < records[j].Key().String()
		}
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})
}
