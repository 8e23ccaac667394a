package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

// ScopeRequest describes one scope run.
type ScopeRequest struct {
	// Stdout and Stderr are the downstream sinks; nil discards.
	Stdout     io.Writer
	Stderr     io.Writer
	ConsumerID string
	Workspace  string
	Bindings   []binding.Binding
}

// ScopeResult reports what a scope run bound. It never carries secret values.
type ScopeResult struct {
	UsageWarnings      []error
	SensitiveVariables []string
	Variables          []string
	ScopeID            values.ScopeID
}

// ScopeRunner binds credentials around an executor-supplied unit of work.
// Masking is installed before the executor can produce output and removed
// only after all of it has been flushed; the binding set is destroyed on
// every exit path.
type ScopeRunner struct {
	binder  *ScopeBinder
	store   ports.UsageRecorder
	masking ports.Masking
	logger  *slog.Logger
}

// NewScopeRunner creates a scope runner.
func NewScopeRunner(binder *ScopeBinder, store ports.UsageRecorder, masking ports.Masking, logger *slog.Logger) *ScopeRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeRunner{
		binder:  binder,
		store:   store,
		masking: masking,
		logger:  logger,
	}
}

// Run executes one scope. The returned result is non-nil whenever a scope id
// was allocated, even on error.
func (r *ScopeRunner) Run(ctx context.Context, req ScopeRequest, executor ports.ScopeExecutor) (result *ScopeResult, err error) {
	if executor == nil {
		return nil, fmt.Errorf("run scope: executor is required")
	}
	if req.ConsumerID == "" {
		return nil, fmt.Errorf("run scope: consumer id is required")
	}

	scopeID := values.NewScopeID()
	result = &ScopeResult{ScopeID: scopeID}

	provider := r.masking.NewProvider()
	logger := r.masking.NewLogger(r.logger, provider).With("scope", scopeID.Short(), "consumer", req.ConsumerID)
	tracker := NewUsageTracker(r.store, scopeID, logger)

	set, err := r.binder.Bind(ctx, ScopeContext{
		ID:         scopeID,
		ConsumerID: req.ConsumerID,
		Workspace:  req.Workspace,
		Usage:      tracker,
	}, req.Bindings)
	if err != nil {
		logger.Error("scope bind failed", "error", err)
		result.UsageWarnings = tracker.Warnings()
		return result, err
	}
	defer func() {
		if derr := set.Destroy(); derr != nil {
			logger.Warn("scope teardown incomplete", "error", derr)
		}
		result.UsageWarnings = tracker.Warnings()
	}()

	for _, secret := range set.Secrets() {
		provider.Track(secret)
	}
	result.Variables = set.Variables()
	result.SensitiveVariables = set.SensitiveVariables()

	stdout := r.masking.NewWriter(orDiscard(req.Stdout), provider)
	stderr := r.masking.NewWriter(orDiscard(req.Stderr), provider)
	defer func() {
		// Close is idempotent; this covers panics in the executor.
		_ = stdout.Close()
		_ = stderr.Close()
	}()

	logger.Info("scope started", "variables", result.Variables)
	runErr := executor.Run(ctx, set.Environment(), stdout, stderr)
	closeErr := errors.Join(stdout.Close(), stderr.Close())

	if runErr != nil {
		runErr = r.masking.SafeError(runErr, provider)
		logger.Error("scope failed", "error", runErr)
		return result, runErr
	}
	if closeErr != nil {
		return result, fmt.Errorf("flush scope output: %w", closeErr)
	}
	logger.Info("scope finished")
	return result, nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
