package sensitivedata

import (
	"io"
	"log/slog"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/infrastructure/redaction"
)

// Ensure interface compliance
var (
	_ ports.Masking                = (*Masking)(nil)
	_ ports.SensitiveValueProvider = (*Provider)(nil)
	_ ports.MaskedWriter           = (*OutputMasker)(nil)
)

// Masking implements ports.Masking with exact-value output maskers and a
// masking slog handler.
type Masking struct {
	redactor    *redaction.Redactor
	placeholder string
}

// NewMasking creates the masking layer. redactor may be nil.
func NewMasking(placeholder string, redactor *redaction.Redactor) *Masking {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Masking{placeholder: placeholder, redactor: redactor}
}

// Placeholder returns the replacement text for masked values.
func (m *Masking) Placeholder() string {
	return m.placeholder
}

// NewProvider implements ports.Masking.
func (m *Masking) NewProvider() ports.SensitiveValueProvider {
	return NewProvider()
}

// NewWriter implements ports.Masking.
func (m *Masking) NewWriter(w io.Writer, values ports.SensitiveValueProvider) ports.MaskedWriter {
	var secrets []string
	if values != nil {
		secrets = values.AllValues()
	}
	return NewOutputMasker(w, secrets, m.placeholder)
}

// NewLogger implements ports.Masking.
func (m *Masking) NewLogger(base *slog.Logger, values ports.SensitiveValueProvider) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.New(NewMaskingHandler(base.Handler(), values, m.redactor, m.placeholder))
}

// SafeError implements ports.Masking.
func (m *Masking) SafeError(err error, values ports.SensitiveValueProvider) error {
	return SafeError(err, values, m.placeholder)
}
