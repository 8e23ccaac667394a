package sensitivedata

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeError(t *testing.T) {
	provider := NewProvider()
	provider.Track("very-secret-token")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "No secret",
			err:      errors.New("something failed"),
			expected: "something failed",
		},
		{
			name:     "Detailed error with secret",
			err:      errors.New("API call failed with token: very-secret-token"),
			expected: "API call failed with token: ****",
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeError(tt.err, provider, "")
			if tt.err == nil {
				assert.NoError(t, got)
			} else {
				assert.EqualError(t, got, tt.expected)
			}
		})
	}
}

func TestSafeError_PreservesSentinels(t *testing.T) {
	provider := NewProvider()
	provider.Track("hunter2")

	err := fmt.Errorf("exec with hunter2: %w", context.Canceled)
	got := SafeError(err, provider, "[x]")

	assert.EqualError(t, got, "exec with [x]: context canceled")
	assert.ErrorIs(t, got, context.Canceled)
}

func TestSafeError_NilProvider(t *testing.T) {
	err := errors.New("boom")
	assert.Same(t, err, SafeError(err, nil, ""))
}
