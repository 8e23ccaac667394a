package sensitivedata

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/infrastructure/redaction"
)

// MaskingHandler is a slog.Handler that masks tracked values in the message
// and in string, error, map and slice attributes before delegating. Attribute keys are
// matched against the redactor's configured paths using their group prefix.
type MaskingHandler struct {
	next        slog.Handler
	values      ports.SensitiveValueProvider
	redactor    *redaction.Redactor
	placeholder string
	groups      string
}

// NewMaskingHandler wraps next. redactor may be nil.
func NewMaskingHandler(next slog.Handler, values ports.SensitiveValueProvider, redactor *redaction.Redactor, placeholder string) *MaskingHandler {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &MaskingHandler{
		next:        next,
		values:      values,
		redactor:    redactor,
		placeholder: placeholder,
	}
}

// Enabled implements slog.Handler.
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *MaskingHandler) Handle(ctx context.Context, r slog.Record) error {
	secrets := h.secrets()
	masked := slog.NewRecord(r.Time, r.Level, h.scrub("", r.Message, secrets), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a, h.groups, secrets))
		return true
	})
	return h.next.Handle(ctx, masked)
}

// WithAttrs implements slog.Handler. Attributes are masked against the values
// tracked at the time of the call.
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	secrets := h.secrets()
	masked := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		masked = append(masked, h.maskAttr(a, h.groups, secrets))
	}
	clone := *h
	clone.next = h.next.WithAttrs(masked)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.next = h.next.WithGroup(name)
	clone.groups = joinPath(h.groups, name)
	return &clone
}

func (h *MaskingHandler) secrets() []string {
	if h.values == nil {
		return nil
	}
	return h.values.AllValues()
}

func (h *MaskingHandler) maskAttr(a slog.Attr, prefix string, secrets []string) slog.Attr {
	a.Value = a.Value.Resolve()
	path := joinPath(prefix, a.Key)

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.scrub(path, a.Value.String(), secrets))

	case slog.KindGroup:
		group := a.Value.Group()
		masked := make([]any, 0, len(group))
		for _, ga := range group {
			masked = append(masked, h.maskAttr(ga, path, secrets))
		}
		return slog.Group(a.Key, masked...)

	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, h.scrub(path, err.Error(), secrets))
		}
		// Maps and slices are copied with their string leaves scrubbed.
		return slog.Any(a.Key, redaction.Walk(a.Value.Any(), path, func(p, s string) string {
			return h.scrub(p, s, secrets)
		}))

	default:
		return a
	}
}

// scrub masks exact tracked values first, then applies the redactor.
func (h *MaskingHandler) scrub(path, s string, secrets []string) string {
	s = maskString(s, secrets, h.placeholder)
	if h.redactor == nil {
		return s
	}
	if path == "" {
		return h.redactor.ScrubString(s)
	}
	return h.redactor.ScrubField(path, s)
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
