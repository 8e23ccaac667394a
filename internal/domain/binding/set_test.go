package binding

import (
	"errors"
	"testing"

	"github.com/reglet-dev/credbind/internal/domain/credentials"
	"github.com/reglet-dev/credbind/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_SingleValue(t *testing.T) {
	s := NewSet(values.NewScopeID())
	require.NoError(t, s.AddOutput(values.MustNewVariableName("AUTH"), Single("Ym9iOnMzY3IzdA==")))

	assert.Equal(t, map[string]string{"AUTH": "Ym9iOnMzY3IzdA=="}, s.Environment())
	assert.Equal(t, []string{"AUTH"}, s.SensitiveVariables())
	assert.Equal(t, []string{"Ym9iOnMzY3IzdA=="}, s.Secrets())
}

func TestSet_SuffixedAndPublicValues(t *testing.T) {
	s := NewSet(values.NewScopeID())
	out := &Output{
		Values: []Value{
			{Suffix: "_USR", Secret: credentials.NewSecret("bob"), Public: true},
			{Suffix: "_PSW", Secret: credentials.NewSecret("s3cr3t")},
		},
		Masks: []*credentials.Secret{credentials.NewSecret("extra-material"), credentials.NewSecret("")},
	}
	require.NoError(t, s.AddOutput(values.MustNewVariableName("CREDS"), out))

	assert.Equal(t, []string{"CREDS_USR", "CREDS_PSW"}, s.Variables())
	assert.Equal(t, []string{"CREDS_PSW"}, s.SensitiveVariables())
	assert.Equal(t, []string{"extra-material", "s3cr3t"}, s.Secrets(), "longest first, empty and public skipped")
}

func TestSet_ExplicitNameOverridesSuffix(t *testing.T) {
	s := NewSet(values.NewScopeID())
	out := &Output{Values: []Value{{Name: "DB_USER", Secret: credentials.NewSecret("u")}}}
	require.NoError(t, s.AddOutput(values.MustNewVariableName("CREDS"), out))
	assert.Equal(t, []string{"DB_USER"}, s.Variables())

	bad := &Output{Values: []Value{{Name: "1BAD", Secret: credentials.NewSecret("u")}}}
	assert.ErrorIs(t, s.AddOutput(values.MustNewVariableName("CREDS"), bad), ErrInvalidVariable)
}

func TestSet_DuplicateFinalNames(t *testing.T) {
	s := NewSet(values.NewScopeID())
	require.NoError(t, s.AddOutput(values.MustNewVariableName("A_USR"), Single("x")))

	out := &Output{Values: []Value{
		{Suffix: "_PSW", Secret: credentials.NewSecret("p")},
		{Suffix: "_USR", Secret: credentials.NewSecret("u")},
	}}
	err := s.AddOutput(values.MustNewVariableName("A"), out)

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "A_USR", bindErr.Variable)
	assert.ErrorIs(t, err, ErrDuplicateVariable)
	assert.Equal(t, []string{"A_USR"}, s.Variables(), "nothing from the failed output is added")
}

func TestSet_DestroyZeroesAndCleansUp(t *testing.T) {
	s := NewSet(values.NewScopeID())
	secret := credentials.NewSecret("s3cr3t")
	mask := credentials.NewSecret("file-content")
	var cleaned []string

	require.NoError(t, s.AddOutput(values.MustNewVariableName("A"), &Output{
		Values:  []Value{{Secret: secret}},
		Masks:   []*credentials.Secret{mask},
		Cleanup: func() error { cleaned = append(cleaned, "a"); return nil },
	}))
	require.NoError(t, s.AddOutput(values.MustNewVariableName("B"), &Output{
		Values:  []Value{{Secret: credentials.NewSecret("other")}},
		Cleanup: func() error { cleaned = append(cleaned, "b"); return errors.New("rm failed") },
	}))

	err := s.Destroy()
	assert.EqualError(t, err, "rm failed")
	assert.Equal(t, []string{"b", "a"}, cleaned, "cleanups run in reverse order")
	assert.True(t, secret.IsEmpty())
	assert.True(t, mask.IsEmpty())
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Destroyed())

	assert.NoError(t, s.Destroy(), "second destroy is a no-op")
	assert.Error(t, s.AddOutput(values.MustNewVariableName("C"), Single("x")))
}
