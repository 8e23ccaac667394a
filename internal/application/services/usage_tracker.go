package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/domain/usage"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

// UsageTracker records credential usage for one scope instance.
// Each (credential, consumer) pair is written at most once per instance;
// a failed write is retried on the next call. Write failures never fail the
// scope: they are logged as warnings and kept for the caller to inspect.
type UsageTracker struct {
	recorder ports.UsageRecorder
	logger   *slog.Logger
	recorded map[usage.Key]struct{}
	warnings []error
	scope    values.ScopeID
	mu       sync.Mutex
}

// NewUsageTracker creates a tracker bound to scope. A nil recorder disables tracking.
func NewUsageTracker(recorder ports.UsageRecorder, scope values.ScopeID, logger *slog.Logger) *UsageTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageTracker{
		recorder: recorder,
		scope:    scope,
		logger:   logger,
		recorded: make(map[usage.Key]struct{}),
	}
}

// ScopeID returns the scope instance this tracker belongs to.
func (t *UsageTracker) ScopeID() values.ScopeID {
	return t.scope
}

// RecordUsage emits the usage fact for credentialID consumed by consumerID.
func (t *UsageTracker) RecordUsage(ctx context.Context, credentialID, consumerID string) {
	if t == nil || t.recorder == nil {
		return
	}

	record := usage.NewRecord(credentialID, consumerID, t.scope)
	key := record.Key()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, done := t.recorded[key]; done {
		return
	}

	if err := record.Validate(); err != nil {
		t.warn(credentialID, err)
		return
	}

	if err := t.recorder.RecordFingerprint(ctx, record); err != nil {
		t.warn(credentialID, err)
		return
	}

	t.recorded[key] = struct{}{}
	t.logger.Debug("recorded credential usage", "credential", credentialID, "consumer", consumerID)
}

func (t *UsageTracker) warn(credentialID string, err error) {
	t.warnings = append(t.warnings, err)
	t.logger.Warn("failed to record credential usage", "credential", credentialID, "error", err)
}

// Recorded returns how many distinct usage facts were written.
func (t *UsageTracker) Recorded() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.recorded)
}

// Warnings returns the write failures seen so far.
func (t *UsageTracker) Warnings() []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]error, len(t.warnings))
	copy(out, t.warnings)
	return out
}
