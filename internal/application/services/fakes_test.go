package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/usage"
)

// fakeStore is an in-memory credential store that hands out copies.
type fakeStore struct {
	creds     map[string]credentials.Credential
	denied    map[string]bool
	recordErr error
	lookups   []string
	records   []usage.Record
	mu        sync.Mutex
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		creds:  make(map[string]credentials.Credential),
		denied: make(map[string]bool),
	}
}

func (s *fakeStore) addUserPass(id, username, password string) {
	s.creds[id] = credentials.Credential{
		ID:       id,
		Kind:     credentials.CapabilityUsernamePassword,
		Username: username,
		Password: credentials.NewSecret(password),
	}
}

func (s *fakeStore) addText(id, secret string) {
	s.creds[id] = credentials.Credential{
		ID:     id,
		Kind:   credentials.CapabilitySecretText,
		Secret: credentials.NewSecret(secret),
	}
}

func (s *fakeStore) Lookup(_ context.Context, id, consumer string, required credentials.Capability) (*credentials.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, id)

	c, ok := s.creds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", credentials.ErrNotFound, id)
	}
	if s.denied[id] {
		return nil, fmt.Errorf("%w: %s for %s", credentials.ErrAccessDenied, id, consumer)
	}
	if c.Kind != required {
		return nil, fmt.Errorf("%w: %s", credentials.ErrCapabilityMismatch, id)
	}
	// Callers zero what they get, so never hand out the stored secrets.
	out := c
	if c.Password != nil {
		out.Password = credentials.NewSecret(c.Password.Reveal())
	}
	if c.Secret != nil {
		out.Secret = credentials.NewSecret(c.Secret.Reveal())
	}
	if c.Content != nil {
		out.Content = credentials.NewSecret(c.Content.Reveal())
	}
	return &out, nil
}

func (s *fakeStore) RecordFingerprint(_ context.Context, record usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.records = append(s.records, record)
	return nil
}

func (s *fakeStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
