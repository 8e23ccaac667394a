package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/values"
	"github.com/reglet-dev/credbind/internal/infrastructure/transforms"
)

func newTestBinder(store *fakeStore) *ScopeBinder {
	return NewScopeBinder(transforms.NewDefaultRegistry(), store, nil)
}

func testScope(store *fakeStore) ScopeContext {
	id := values.NewScopeID()
	return ScopeContext{
		ID:         id,
		ConsumerID: "job-1",
		Usage:      NewUsageTracker(store, id, nil),
	}
}

func TestScopeBinder_BindsBase64Pair(t *testing.T) {
	store := newFakeStore()
	store.addUserPass("repo-creds", "bob", "s3cr3t")
	binder := newTestBinder(store)

	set, err := binder.Bind(context.Background(), testScope(store), []binding.Binding{
		binding.MustNew("AUTH", "repo-creds", transforms.TypeUsernameColonPasswordBase64),
	})
	require.NoError(t, err)
	defer func() { _ = set.Destroy() }()

	assert.Equal(t, map[string]string{"AUTH": "Ym9iOnMzY3IzdA=="}, set.Environment())
	assert.Equal(t, []string{"AUTH"}, set.SensitiveVariables())
	assert.Equal(t, 1, store.recordCount())
}

func TestScopeBinder_OneRecordPerCredential(t *testing.T) {
	store := newFakeStore()
	store.addUserPass("repo-creds", "bob", "s3cr3t")
	binder := newTestBinder(store)

	set, err := binder.Bind(context.Background(), testScope(store), []binding.Binding{
		binding.MustNew("AUTH", "repo-creds", transforms.TypeUsernameColonPasswordBase64),
		binding.MustNew("PAIR", "repo-creds", transforms.TypeUsernameColonPassword),
		binding.MustNew("GIT", "repo-creds", transforms.TypeUsernamePassword),
	})
	require.NoError(t, err)
	defer func() { _ = set.Destroy() }()

	assert.Equal(t, []string{"AUTH", "PAIR", "GIT_USR", "GIT_PSW"}, set.Variables())
	assert.Equal(t, []string{"AUTH", "GIT_PSW", "PAIR"}, set.SensitiveVariables())
	assert.Equal(t, 1, store.recordCount())
}

func TestScopeBinder_ReentrantBindInSameScope(t *testing.T) {
	store := newFakeStore()
	store.addUserPass("repo-creds", "bob", "s3cr3t")
	binder := newTestBinder(store)
	scope := testScope(store)
	bindings := []binding.Binding{binding.MustNew("AUTH", "repo-creds", transforms.TypeUsernameColonPasswordBase64)}

	for range 2 {
		set, err := binder.Bind(context.Background(), scope, bindings)
		require.NoError(t, err)
		require.NoError(t, set.Destroy())
	}

	assert.Equal(t, 1, store.recordCount())
}

func TestScopeBinder_DuplicateVariableFailsBeforeLookup(t *testing.T) {
	store := newFakeStore()
	store.addUserPass("a", "u", "p")
	store.addUserPass("b", "u", "p")
	binder := newTestBinder(store)

	set, err := binder.Bind(context.Background(), testScope(store), []binding.Binding{
		binding.MustNew("AUTH", "a", transforms.TypeUsernameColonPasswordBase64),
		binding.MustNew("AUTH", "b", transforms.TypeUsernameColonPasswordBase64),
	})
	assert.Nil(t, set)
	require.ErrorIs(t, err, binding.ErrDuplicateVariable)

	var bindErr *binding.BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "AUTH", bindErr.Variable)
	assert.Empty(t, store.lookups)
	assert.Equal(t, 0, store.recordCount())
}

func TestScopeBinder_TypeAndWorkspaceCheckedBeforeAnyLookup(t *testing.T) {
	tests := []struct {
		name    string
		second  binding.Binding
		wantErr error
	}{
		{
			name:    "unknown type",
			second:  binding.MustNew("SECOND", "token", "no-such-type"),
			wantErr: binding.ErrUnknownBindingType,
		},
		{
			name:    "workspace required",
			second:  binding.MustNew("SECOND", "token", transforms.TypeFile),
			wantErr: binding.ErrWorkspaceRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addUserPass("repo-creds", "bob", "s3cr3t")
			store.addText("token", "tok-123")

			_, err := newTestBinder(store).Bind(context.Background(), testScope(store), []binding.Binding{
				binding.MustNew("AUTH", "repo-creds", transforms.TypeUsernameColonPasswordBase64),
				tt.second,
			})
			require.ErrorIs(t, err, tt.wantErr)

			var bindErr *binding.BindError
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, "SECOND", bindErr.Variable)
			assert.Empty(t, store.lookups)
			assert.Equal(t, 0, store.recordCount())
		})
	}
}

func TestScopeBinder_Failures(t *testing.T) {
	tests := []struct {
		name     string
		binding  binding.Binding
		scope    func(ScopeContext) ScopeContext
		wantErr  error
		lookedUp bool
	}{
		{
			name:     "unknown credential",
			binding:  binding.MustNew("AUTH", "missing", transforms.TypeUsernameColonPasswordBase64),
			wantErr:  credentials.ErrNotFound,
			lookedUp: true,
		},
		{
			name:     "access denied",
			binding:  binding.MustNew("AUTH", "locked", transforms.TypeUsernameColonPasswordBase64),
			wantErr:  credentials.ErrAccessDenied,
			lookedUp: true,
		},
		{
			name:     "wrong kind",
			binding:  binding.MustNew("AUTH", "token", transforms.TypeUsernameColonPasswordBase64),
			wantErr:  credentials.ErrCapabilityMismatch,
			lookedUp: true,
		},
		{
			name:     "incomplete credential",
			binding:  binding.MustNew("AUTH", "no-password", transforms.TypeUsernameColonPasswordBase64),
			wantErr:  credentials.ErrIncompleteCredential,
			lookedUp: true,
		},
		{
			name:    "unknown binding type",
			binding: binding.MustNew("AUTH", "repo-creds", "sshUserPrivateKey"),
			wantErr: binding.ErrUnknownBindingType,
		},
		{
			name:    "workspace required",
			binding: binding.MustNew("KUBECONFIG", "kube", transforms.TypeFile),
			wantErr: binding.ErrWorkspaceRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addUserPass("repo-creds", "bob", "s3cr3t")
			store.addUserPass("locked", "bob", "s3cr3t")
			store.denied["locked"] = true
			store.addText("token", "tok-123")
			store.addUserPass("no-password", "bob", "")
			binder := newTestBinder(store)

			set, err := binder.Bind(context.Background(), testScope(store), []binding.Binding{
				binding.MustNew("FIRST", "repo-creds", transforms.TypeUsernameColonPassword),
				tt.binding,
			})
			assert.Nil(t, set)
			require.ErrorIs(t, err, tt.wantErr)

			var bindErr *binding.BindError
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, tt.binding.Variable.String(), bindErr.Variable)
			assert.NotContains(t, err.Error(), "s3cr3t")

			assert.Equal(t, 0, store.recordCount(), "no usage is recorded for a failed bind")
			if tt.lookedUp {
				assert.Contains(t, store.lookups, tt.binding.CredentialID)
			} else {
				assert.NotContains(t, store.lookups, tt.binding.CredentialID)
			}
		})
	}
}

// zeroCheckTransform exposes a secret and remembers it so the test can
// observe that a failed bind zeroes earlier outputs.
type zeroCheckTransform struct {
	outputs []*binding.Output
}

func (z *zeroCheckTransform) Apply(r *credentials.Resolved, _ binding.TransformConfig) (*binding.Output, error) {
	out := binding.Single(r.Secret.Reveal())
	z.outputs = append(z.outputs, out)
	return out, nil
}

func TestScopeBinder_FailureZeroesPartialResults(t *testing.T) {
	spy := &zeroCheckTransform{}
	reg := binding.NewRegistry()
	reg.MustRegister(binding.Descriptor{Type: "spy", Accepts: credentials.CapabilitySecretText}, spy)
	reg.MustRegister(binding.Descriptor{Type: "boom", Accepts: credentials.CapabilitySecretText},
		binding.TransformFunc(func(*credentials.Resolved, binding.TransformConfig) (*binding.Output, error) {
			return nil, errors.New("boom")
		}))

	store := newFakeStore()
	store.addText("token", "tok-123")
	binder := NewScopeBinder(reg, store, nil)

	_, err := binder.Bind(context.Background(), testScope(store), []binding.Binding{
		binding.MustNew("FIRST", "token", "spy"),
		binding.MustNew("SECOND", "token", "boom"),
	})
	require.Error(t, err)

	require.Len(t, spy.outputs, 1)
	assert.True(t, spy.outputs[0].Values[0].Secret.IsEmpty())
}

func TestScopeBinder_Cancellation(t *testing.T) {
	store := newFakeStore()
	store.addText("token", "tok-123")
	binder := newTestBinder(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := binder.Bind(ctx, testScope(store), []binding.Binding{
		binding.MustNew("TOKEN", "token", transforms.TypeString),
	})
	assert.Nil(t, set)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.lookups)
	assert.Equal(t, 0, store.recordCount())
}

func TestScopeBinder_RequiresScopeID(t *testing.T) {
	binder := newTestBinder(newFakeStore())
	_, err := binder.Bind(context.Background(), ScopeContext{ConsumerID: "job"}, nil)
	assert.Error(t, err)
}

func TestScopeBinder_EmptyBindings(t *testing.T) {
	store := newFakeStore()
	set, err := newTestBinder(store).Bind(context.Background(), testScope(store), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 0, store.recordCount())
}
