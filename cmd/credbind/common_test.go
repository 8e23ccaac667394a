package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonOptions_ApplyToContext(t *testing.T) {
	t.Parallel()

	t.Run("with timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: 100 * time.Millisecond}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()

		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(100*time.Millisecond), deadline, 10*time.Millisecond)
	})

	t.Run("no timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: 0}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()

		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})
}

func TestCommonOptions_ValidateFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    CommonOptions
		wantErr bool
		errMsg  string
	}{
		{name: "table", opts: CommonOptions{Format: "table"}},
		{name: "json", opts: CommonOptions{Format: "json"}},
		{name: "yaml", opts: CommonOptions{Format: "yaml", Timeout: time.Minute}},
		{name: "invalid format", opts: CommonOptions{Format: "sarif"}, wantErr: true, errMsg: "invalid format"},
		{name: "negative timeout", opts: CommonOptions{Format: "table", Timeout: -time.Second}, wantErr: true, errMsg: "--timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.ValidateFlags()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWriteStructured(t *testing.T) {
	t.Parallel()
	v := map[string]string{"type": "string"}

	var buf bytes.Buffer
	require.NoError(t, writeStructured(&buf, "json", v))
	assert.JSONEq(t, `{"type":"string"}`, buf.String())

	buf.Reset()
	require.NoError(t, writeStructured(&buf, "yaml", v))
	assert.Equal(t, "type: string\n", buf.String())

	assert.Error(t, writeStructured(&buf, "xml", v))
}
