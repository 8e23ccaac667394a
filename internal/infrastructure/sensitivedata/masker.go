package sensitivedata

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// DefaultPlaceholder replaces every masked occurrence.
const DefaultPlaceholder = "****"

// ErrMaskerClosed is returned by Write after Close.
var ErrMaskerClosed = errors.New("output masker closed")

// OutputMasker wraps an io.Writer and replaces every exact occurrence of a
// secret with a placeholder before forwarding. Secrets split across writes
// are caught by holding back the shortest tail that could still start a
// secret; the held tail is always shorter than the longest secret.
//
// Masking is exact-substring only: re-encoded forms of a secret pass through.
// Thread-safe: can be used concurrently by multiple goroutines.
type OutputMasker struct {
	underlying  io.Writer
	secrets     [][]byte
	placeholder []byte
	pending     []byte
	maxLen      int
	closed      bool
	mu          sync.Mutex
}

// NewOutputMasker creates a masker over w. Empty secrets are ignored.
func NewOutputMasker(w io.Writer, secrets []string, placeholder string) *OutputMasker {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	m := &OutputMasker{
		underlying:  w,
		placeholder: []byte(placeholder),
	}
	seen := make(map[string]struct{}, len(secrets))
	for _, s := range secrets {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		m.secrets = append(m.secrets, []byte(s))
		if len(s) > m.maxLen {
			m.maxLen = len(s)
		}
	}
	return m
}

// Write implements io.Writer. It reports len(p) on success even though the
// forwarded bytes may differ in length or be partly held back.
func (m *OutputMasker) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrMaskerClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	// No secrets: pass through unchanged
	if len(m.secrets) == 0 {
		return m.underlying.Write(p)
	}

	m.pending = append(m.pending, p...)
	if err := m.drain(false); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close flushes the held-back tail and disables the masker. It does not close
// the underlying writer. Calling Close more than once is a no-op.
func (m *OutputMasker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	err := m.drain(true)
	m.pending = nil
	return err
}

// Buffered returns the number of bytes currently held back.
func (m *OutputMasker) Buffered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// drain masks pending and forwards everything that can no longer become part
// of a secret. With final set, nothing is held back.
func (m *OutputMasker) drain(final bool) error {
	if len(m.pending) == 0 {
		return nil
	}

	var out bytes.Buffer
	buf := m.pending
	off := 0

	// next[i] caches the absolute index of secret i's first occurrence at or
	// after off; it is searched again only once off has passed it.
	next := make([]int, len(m.secrets))
	for i, s := range m.secrets {
		next[i] = bytes.Index(buf, s)
	}

	for off < len(buf) {
		hold := len(buf)
		if !final {
			hold = off + m.partialStart(buf[off:])
		}

		pos, n := m.earliestMatch(buf, off, next)
		if pos >= 0 && pos < hold {
			out.Write(buf[off:pos])
			out.Write(m.placeholder)
			off = pos + n
			continue
		}

		out.Write(buf[off:hold])
		off = hold
		break
	}

	// Copy so the held tail does not pin the grown buffer.
	m.pending = append([]byte(nil), buf[off:]...)

	if out.Len() == 0 {
		return nil
	}
	_, err := m.underlying.Write(out.Bytes())
	return err
}

// earliestMatch returns the start and length of the leftmost occurrence at or
// after off of any secret, preferring the longest at equal starts. pos is -1
// if none. Stale entries of next are refreshed in place.
func (m *OutputMasker) earliestMatch(buf []byte, off int, next []int) (pos, n int) {
	pos = -1
	for i, s := range m.secrets {
		if next[i] >= 0 && next[i] < off {
			next[i] = bytes.Index(buf[off:], s)
			if next[i] >= 0 {
				next[i] += off
			}
		}
		idx := next[i]
		if idx < 0 {
			continue
		}
		if pos < 0 || idx < pos || (idx == pos && len(s) > n) {
			pos, n = idx, len(s)
		}
	}
	return pos, n
}

// partialStart returns the earliest index whose suffix is a proper prefix of
// some secret, or len(buf) if there is none.
func (m *OutputMasker) partialStart(buf []byte) int {
	start := len(buf) - (m.maxLen - 1)
	if start < 0 {
		start = 0
	}
	for q := start; q < len(buf); q++ {
		tail := buf[q:]
		for _, s := range m.secrets {
			if len(s) > len(tail) && bytes.HasPrefix(s, tail) {
				return q
			}
		}
	}
	return len(buf)
}
