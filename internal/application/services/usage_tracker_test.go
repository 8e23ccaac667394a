package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/credbind/internal/domain/values"
)

func TestUsageTracker_RecordsOncePerScope(t *testing.T) {
	store := newFakeStore()
	scope := values.NewScopeID()
	tracker := NewUsageTracker(store, scope, nil)

	ctx := context.Background()
	tracker.RecordUsage(ctx, "repo-creds", "job-1")
	tracker.RecordUsage(ctx, "repo-creds", "job-1")
	tracker.RecordUsage(ctx, "other", "job-1")

	require.Equal(t, 2, store.recordCount())
	assert.Equal(t, 2, tracker.Recorded())
	assert.Equal(t, scope, store.records[0].ScopeID)
	assert.Equal(t, "repo-creds", store.records[0].CredentialID)
	assert.Equal(t, "job-1", store.records[0].ConsumerID)
	assert.Empty(t, tracker.Warnings())
}

func TestUsageTracker_SeparateScopesRecordSeparately(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	NewUsageTracker(store, values.NewScopeID(), nil).RecordUsage(ctx, "c", "job")
	NewUsageTracker(store, values.NewScopeID(), nil).RecordUsage(ctx, "c", "job")

	assert.Equal(t, 2, store.recordCount())
}

func TestUsageTracker_FailureIsWarningAndRetried(t *testing.T) {
	store := newFakeStore()
	store.recordErr = errors.New("store offline")
	tracker := NewUsageTracker(store, values.NewScopeID(), nil)
	ctx := context.Background()

	tracker.RecordUsage(ctx, "c", "job")
	assert.Equal(t, 0, tracker.Recorded())
	require.Len(t, tracker.Warnings(), 1)
	assert.EqualError(t, tracker.Warnings()[0], "store offline")

	store.recordErr = nil
	tracker.RecordUsage(ctx, "c", "job")
	assert.Equal(t, 1, tracker.Recorded())
	assert.Equal(t, 1, store.recordCount())
}

func TestUsageTracker_NilSafe(t *testing.T) {
	var tracker *UsageTracker
	assert.NotPanics(t, func() {
		tracker.RecordUsage(context.Background(), "c", "job")
	})

	disabled := NewUsageTracker(nil, values.NewScopeID(), nil)
	disabled.RecordUsage(context.Background(), "c", "job")
	assert.Equal(t, 0, disabled.Recorded())
}

func TestUsageTracker_InvalidRecordIsWarning(t *testing.T) {
	store := newFakeStore()
	tracker := NewUsageTracker(store, values.NewScopeID(), nil)

	tracker.RecordUsage(context.Background(), "", "job")

	assert.Equal(t, 0, store.recordCount())
	assert.Len(t, tracker.Warnings(), 1)
}
