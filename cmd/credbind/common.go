package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// CommonOptions contains flags shared across commands.
type CommonOptions struct {
	Format  string
	Timeout time.Duration
}

// DefaultCommonOptions returns sensible defaults.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{
		Format: "table",
	}
}

// RegisterFormatFlag adds --format.
func (opts *CommonOptions) RegisterFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format, "Output format: table, json, yaml")
}

// RegisterTimeoutFlag adds --timeout.
func (opts *CommonOptions) RegisterTimeoutFlag(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Timeout for the whole scope (0 to disable)")
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// ValidateFlags validates common options.
func (opts *CommonOptions) ValidateFlags() error {
	switch opts.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid format: %s (valid: table, json, yaml)", opts.Format)
	}
	if opts.Timeout < 0 {
		return fmt.Errorf("--timeout must not be negative")
	}
	return nil
}

// writeStructured renders v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported structured format %q", format)
	}
}
