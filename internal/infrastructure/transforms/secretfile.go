package transforms

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/domain/credentials"
)

// secretDirName is created under the workspace to hold per-scope secret files.
const secretDirName = ".credbind"

// SecretFile writes the credential content to a 0600 file inside the
// workspace and exposes its path. The path is public; the content is masked.
// The file and its scope directory are removed by the output cleanup.
func SecretFile(r *credentials.Resolved, cfg binding.TransformConfig) (*binding.Output, error) {
	if r == nil || r.Credential == nil || r.Content.IsEmpty() {
		return nil, fmt.Errorf("%w: no file content", credentials.ErrIncompleteCredential)
	}
	if cfg.Workspace == "" {
		return nil, fmt.Errorf("%w: %w", credentials.ErrTransformFailure, binding.ErrWorkspaceRequired)
	}

	name := filepath.Base(r.FileName)
	if name == "" || name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, "..") {
		name = "secret"
	}

	dir := filepath.Join(cfg.Workspace, secretDirName, cfg.ScopeID.Short()+"-"+sanitize(r.ID))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: creating secret dir: %v", credentials.ErrTransformFailure, err)
	}
	cleanup := func() error {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing secret dir %s: %w", dir, err)
		}
		return nil
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, r.Content.Bytes(), 0o600); err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("%w: writing secret file: %v", credentials.ErrTransformFailure, err)
	}

	return &binding.Output{
		Values:  []binding.Value{{Secret: credentials.NewSecret(path), Public: true}},
		Masks:   []*credentials.Secret{credentials.NewSecret(r.Content.Reveal())},
		Cleanup: cleanup,
	}, nil
}

// sanitize keeps credential ids safe as a path component.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
