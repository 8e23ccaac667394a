// Package transforms provides the built-in binding types.
package transforms

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/domain/credentials"
)

// Binding type identifiers.
const (
	TypeUsernameColonPasswordBase64 = "usernameColonPasswordBase64"
	TypeUsernameColonPassword       = "usernameColonPassword"
	TypeUsernamePassword            = "usernamePassword"
	TypeString                      = "string"
	TypeFile                        = "file"
)

// usernameAndPassword returns the checked username and password of r.
func usernameAndPassword(r *credentials.Resolved) (string, string, error) {
	if r == nil || r.Credential == nil {
		return "", "", fmt.Errorf("%w: no credential", credentials.ErrIncompleteCredential)
	}
	if r.Username == "" {
		return "", "", fmt.Errorf("%w: %s has no username", credentials.ErrIncompleteCredential, r.ID)
	}
	if r.Password.IsEmpty() {
		return "", "", fmt.Errorf("%w: %s has no password", credentials.ErrIncompleteCredential, r.ID)
	}
	password := r.Password.Reveal()
	if !utf8.ValidString(r.Username) || !utf8.ValidString(password) {
		return "", "", fmt.Errorf("%w: %s is not valid UTF-8", credentials.ErrTransformFailure, r.ID)
	}
	return r.Username, password, nil
}

// UsernameColonPasswordBase64 exposes base64(username ":" password) as a
// single value. The separator is not escaped, so a ':' in either field makes
// the decoded pair ambiguous; consumers of this format expect exactly that.
func UsernameColonPasswordBase64(r *credentials.Resolved, _ binding.TransformConfig) (*binding.Output, error) {
	username, password, err := usernameAndPassword(r)
	if err != nil {
		return nil, err
	}
	return binding.Single(base64.StdEncoding.EncodeToString([]byte(username + ":" + password))), nil
}

// UsernameColonPassword exposes "username:password" as a single value.
func UsernameColonPassword(r *credentials.Resolved, _ binding.TransformConfig) (*binding.Output, error) {
	username, password, err := usernameAndPassword(r)
	if err != nil {
		return nil, err
	}
	return binding.Single(username + ":" + password), nil
}

// Options recognised by UsernamePassword.
const (
	OptionUsernameVariable = "username_variable"
	OptionPasswordVariable = "password_variable"
)

// UsernamePassword exposes the username and password as separate variables,
// <VAR>_USR and <VAR>_PSW unless explicit names are configured. The username
// is masked only when the credential marks it secret.
func UsernamePassword(r *credentials.Resolved, cfg binding.TransformConfig) (*binding.Output, error) {
	username, password, err := usernameAndPassword(r)
	if err != nil {
		return nil, err
	}
	return &binding.Output{
		Values: []binding.Value{
			{
				Suffix: "_USR",
				Name:   cfg.Option(OptionUsernameVariable, ""),
				Secret: credentials.NewSecret(username),
				Public: !r.UsernameSecret,
			},
			{
				Suffix: "_PSW",
				Name:   cfg.Option(OptionPasswordVariable, ""),
				Secret: credentials.NewSecret(password),
			},
		},
	}, nil
}
