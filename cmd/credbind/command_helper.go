package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reglet-dev/credbind/internal/infrastructure/container"
)

// CommandContext provides common command dependencies.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization and teardown.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		credentialsFile, _ := cmd.Flags().GetString("credentials")
		c, err := container.New(ctx, container.Options{
			SystemConfigPath: viper.GetString("system-config"),
			CredentialsFile:  credentialsFile,
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer func() {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close backends", "error", err)
			}
		}()

		return handler(&CommandContext{
			Container: c,
			Logger:    logger,
			Context:   ctx,
		}, cmd, args)
	}
}

// addCredentialsFlag adds the credentials file override.
func addCredentialsFlag(cmd *cobra.Command) {
	cmd.Flags().String("credentials", "", "credentials file (overrides credentials.file)")
}
