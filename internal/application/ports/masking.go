package ports

import (
	"io"
	"log/slog"
)

// MaskedWriter masks secrets before forwarding to the wrapped sink.
// Close flushes any held-back bytes; nothing may be written after Close.
type MaskedWriter interface {
	io.Writer
	Close() error
}

// Masking builds the per-scope masking layer.
type Masking interface {
	// NewProvider creates an empty, scope-local value provider.
	NewProvider() SensitiveValueProvider

	// NewWriter wraps w so every value tracked by values is masked.
	// The value set is captured when the writer is created.
	NewWriter(w io.Writer, values SensitiveValueProvider) MaskedWriter

	// NewLogger derives a logger whose records are masked against values.
	NewLogger(base *slog.Logger, values SensitiveValueProvider) *slog.Logger

	// SafeError rewrites err's message if it contains a tracked value.
	SafeError(err error, values SensitiveValueProvider) error
}
