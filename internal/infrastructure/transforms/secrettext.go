package transforms

import (
	"fmt"

	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/domain/credentials"
)

// SecretText exposes a secret-text credential as a single value.
func SecretText(r *credentials.Resolved, _ binding.TransformConfig) (*binding.Output, error) {
	if r == nil || r.Credential == nil || r.Secret.IsEmpty() {
		return nil, fmt.Errorf("%w: no secret text", credentials.ErrIncompleteCredential)
	}
	return binding.Single(r.Secret.Reveal()), nil
}
