package sensitivedata

import (
	"errors"
	"strings"

	"github.com/reglet-dev/credbind/internal/application/ports"
)

// maskString replaces every tracked value in s, longest values first.
func maskString(s string, values []string, placeholder string) string {
	for _, secret := range values {
		if secret != "" && strings.Contains(s, secret) {
			s = strings.ReplaceAll(s, secret, placeholder)
		}
	}
	return s
}

// SafeError wraps an error, masking any sensitive values in the message.
// When nothing needs masking the original error is returned so its type survives.
func SafeError(err error, provider ports.SensitiveValueProvider, placeholder string) error {
	if err == nil {
		return nil
	}
	if provider == nil {
		return err
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	msg := err.Error()
	masked := maskString(msg, provider.AllValues(), placeholder)
	if masked == msg {
		return err
	}

	return &maskedError{msg: masked, cause: err}
}

// maskedError keeps errors.Is working against sentinels while hiding the
// original message.
type maskedError struct {
	cause error
	msg   string
}

func (e *maskedError) Error() string {
	return e.msg
}

func (e *maskedError) Is(target error) bool {
	return errors.Is(e.cause, target)
}
