package credstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/usage"
	"github.com/reglet-dev/credbind/internal/domain/values"
	"github.com/reglet-dev/credbind/internal/infrastructure/persistence/memory"
)

type failingRepo struct {
	*memory.UsageRepository
}

func (failingRepo) Save(context.Context, usage.Record) (bool, error) {
	return false, errors.New("disk full")
}

func TestStore_LookupAndRecord(t *testing.T) {
	src := newTestSource(t)
	repo := memory.NewUsageRepository()
	store := NewStore(src, repo, nil)
	ctx := context.Background()

	cred, err := store.Lookup(ctx, "repo-creds", "deploy", credentials.CapabilityUsernamePassword)
	require.NoError(t, err)
	assert.Equal(t, "bob", cred.Username)

	scope := values.NewScopeID()
	require.NoError(t, store.RecordFingerprint(ctx, usage.NewRecord("repo-creds", "deploy", scope)))
	require.NoError(t, store.RecordFingerprint(ctx, usage.NewRecord("repo-creds", "deploy", scope)))

	records, err := repo.FindByCredential(ctx, "repo-creds", 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewStore(nil, nil, nil).Lookup(ctx, "x", "c", credentials.CapabilitySecretText)
	assert.ErrorIs(t, err, credentials.ErrNotFound)

	assert.NoError(t, NewStore(nil, nil, nil).RecordFingerprint(ctx, usage.NewRecord("c", "j", values.NewScopeID())))

	store := NewStore(nil, failingRepo{memory.NewUsageRepository()}, nil)
	err = store.RecordFingerprint(ctx, usage.NewRecord("c", "j", values.NewScopeID()))
	assert.ErrorContains(t, err, "disk full")

	err = store.RecordFingerprint(ctx, usage.Record{CredentialID: "c"})
	assert.Error(t, err)
}
