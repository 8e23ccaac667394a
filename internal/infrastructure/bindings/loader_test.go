package bindings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	data := []byte(`
bindings:
  - variable: AUTH
    credential: repo-creds
    type: usernameColonPasswordBase64
  - variable: GIT
    credential: repo-creds
    type: usernamePassword
    options:
      username_variable: GIT_USER
`)
	got, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "AUTH", got[0].Variable.String())
	assert.Equal(t, "repo-creds", got[0].CredentialID)
	assert.Equal(t, "usernameColonPasswordBase64", got[0].Type)
	assert.Equal(t, map[string]string{"username_variable": "GIT_USER"}, got[1].Options)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "missing bindings",
			yaml:    "other: 1\n",
			wantMsg: "bindings validation failed",
		},
		{
			name:    "bad variable name",
			yaml:    "bindings:\n  - variable: 1AUTH\n    credential: c\n    type: string\n",
			wantMsg: "/bindings/0/variable",
		},
		{
			name:    "missing credential",
			yaml:    "bindings:\n  - variable: AUTH\n    type: string\n",
			wantMsg: "/bindings/0",
		},
		{
			name:    "unknown field",
			yaml:    "bindings:\n  - variable: AUTH\n    credential: c\n    type: string\n    secret: x\n",
			wantMsg: "/bindings/0",
		},
		{
			name:    "non-string option",
			yaml:    "bindings:\n  - variable: AUTH\n    credential: c\n    type: string\n    options:\n      n: 3\n",
			wantMsg: "/bindings/0/options/n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("bindings: [\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bindings:\n  - variable: TOKEN\n    credential: api\n    type: string\n"), 0o600))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TOKEN", got[0].Variable.String())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in         string
		variable   string
		typ        string
		credential string
		wantErr    bool
	}{
		{in: "AUTH=usernameColonPasswordBase64:repo-creds", variable: "AUTH", typ: "usernameColonPasswordBase64", credential: "repo-creds"},
		{in: "TOKEN=string:team:api", variable: "TOKEN", typ: "string", credential: "team:api"},
		{in: "AUTH", wantErr: true},
		{in: "AUTH=string", wantErr: true},
		{in: "AUTH=:id", wantErr: true},
		{in: "AUTH=string:", wantErr: true},
		{in: "9AUTH=string:id", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFlag(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.variable, got.Variable.String())
			assert.Equal(t, tt.typ, got.Type)
			assert.Equal(t, tt.credential, got.CredentialID)
		})
	}
}

func TestParseFlags(t *testing.T) {
	got, err := ParseFlags([]string{"A=string:a", "B=string:b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ParseFlags([]string{"A=string:a", "bad"})
	assert.Error(t, err)
}
