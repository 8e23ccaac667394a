package credentials

import "runtime"

// Secret holds sensitive material in a byte buffer that can be zeroed.
// The zero value is an empty, absent secret.
type Secret struct {
	value []byte
}

// NewSecret copies s into a zeroable buffer.
// The buffer is also zeroed when the Secret is garbage collected.
func NewSecret(s string) *Secret {
	sec := &Secret{value: []byte(s)}
	runtime.SetFinalizer(sec, func(sec *Secret) {
		sec.Zero()
	})
	return sec
}

// Reveal returns the secret as a string. Never log the result.
func (s *Secret) Reveal() string {
	if s == nil {
		return ""
	}
	return string(s.value)
}

// Bytes returns the underlying buffer. Callers must not retain it past Zero.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.value
}

// Len returns the secret length in bytes.
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.value)
}

// IsEmpty reports whether the secret is absent or has no content.
func (s *Secret) IsEmpty() bool {
	return s.Len() == 0
}

// Zero overwrites the buffer with zeros and truncates it.
func (s *Secret) Zero() {
	if s == nil {
		return
	}
	for i := range s.value {
		s.value[i] = 0
	}
	s.value = s.value[:0]
}

// String keeps secrets out of fmt verbs and structured logs.
func (s *Secret) String() string {
	return "[secret]"
}
