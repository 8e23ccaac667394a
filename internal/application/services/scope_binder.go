// Package services contains application use cases.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

// ScopeContext identifies the scope a bind is performed for.
type ScopeContext struct {
	// Usage receives one usage fact per distinct credential. Nil disables tracking.
	Usage      *UsageTracker
	ConsumerID string
	Workspace  string
	ID         values.ScopeID
}

// ScopeBinder resolves the bindings of one scope into a binding set.
// It holds no per-scope state and is safe for concurrent use.
type ScopeBinder struct {
	registry *binding.Registry
	store    ports.CredentialStore
	logger   *slog.Logger
}

// NewScopeBinder creates a binder over a registry and a credential store.
func NewScopeBinder(registry *binding.Registry, store ports.CredentialStore, logger *slog.Logger) *ScopeBinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeBinder{
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// Bind resolves every binding in order. Binding is all-or-nothing: on the
// first failure everything resolved so far is zeroed and the error, wrapped
// in a *binding.BindError naming the variable, is returned. Usage is only
// recorded once every binding has resolved.
func (b *ScopeBinder) Bind(ctx context.Context, scope ScopeContext, bindings []binding.Binding) (*binding.Set, error) {
	if scope.ID.IsZero() {
		return nil, fmt.Errorf("bind: scope id is required")
	}
	if err := binding.CheckUnique(bindings); err != nil {
		return nil, err
	}

	// Types and workspace needs are checked for every binding before the
	// store is consulted.
	plans := make([]bindPlan, 0, len(bindings))
	for _, bnd := range bindings {
		plan, err := b.plan(scope, bnd)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	set := binding.NewSet(scope.ID)
	var resolvedIDs []string
	seen := make(map[string]struct{})

	for _, plan := range plans {
		bnd := plan.binding
		if err := b.bindOne(ctx, scope, plan, set); err != nil {
			if derr := set.Destroy(); derr != nil {
				b.logger.Warn("cleanup after failed bind incomplete", "scope", scope.ID.Short(), "error", derr)
			}
			return nil, err
		}
		if _, ok := seen[bnd.CredentialID]; !ok {
			seen[bnd.CredentialID] = struct{}{}
			resolvedIDs = append(resolvedIDs, bnd.CredentialID)
		}
	}

	for _, id := range resolvedIDs {
		scope.Usage.RecordUsage(ctx, id, scope.ConsumerID)
	}

	b.logger.Debug("scope bound", "scope", scope.ID.Short(), "variables", set.Len(), "credentials", len(resolvedIDs))
	return set, nil
}

type bindPlan struct {
	transform binding.Transform
	desc      binding.Descriptor
	binding   binding.Binding
}

func (b *ScopeBinder) plan(scope ScopeContext, bnd binding.Binding) (bindPlan, error) {
	variable := bnd.Variable.String()

	transform, desc, err := b.registry.Lookup(bnd.Type)
	if err != nil {
		return bindPlan{}, binding.NewBindError(variable, err)
	}
	if desc.RequiresWorkspace && scope.Workspace == "" {
		return bindPlan{}, binding.NewBindError(variable, fmt.Errorf("%w: %s", binding.ErrWorkspaceRequired, desc.Type))
	}
	return bindPlan{transform: transform, desc: desc, binding: bnd}, nil
}

func (b *ScopeBinder) bindOne(ctx context.Context, scope ScopeContext, plan bindPlan, set *binding.Set) error {
	bnd, desc, transform := plan.binding, plan.desc, plan.transform
	variable := bnd.Variable.String()

	if err := ctx.Err(); err != nil {
		return binding.NewBindError(variable, err)
	}

	cred, err := b.store.Lookup(ctx, bnd.CredentialID, scope.ConsumerID, desc.Accepts)
	if err != nil {
		return binding.NewBindError(variable, err)
	}
	if cred == nil {
		return binding.NewBindError(variable, fmt.Errorf("%w: %s", credentials.ErrNotFound, bnd.CredentialID))
	}
	resolved := credentials.NewResolved(cred)
	defer resolved.Drop()

	if !resolved.Has(desc.Accepts) {
		return binding.NewBindError(variable, fmt.Errorf("%w: %s is %s, %s needs %s",
			credentials.ErrCapabilityMismatch, bnd.CredentialID, cred.Kind, desc.Type, desc.Accepts))
	}

	out, err := transform.Apply(resolved, binding.TransformConfig{
		Options:   bnd.Options,
		Workspace: scope.Workspace,
		ScopeID:   scope.ID,
	})
	if err != nil {
		return binding.NewBindError(variable, err)
	}

	if err := set.AddOutput(bnd.Variable, out); err != nil {
		out.Discard()
		return err
	}
	return nil
}
