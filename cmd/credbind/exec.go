package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reglet-dev/credbind/internal/application/services"
	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/infrastructure/bindings"
	"github.com/reglet-dev/credbind/internal/infrastructure/executor"
)

type execOptions struct {
	common       CommonOptions
	binds        []string
	bindingsFile string
	consumer     string
	workspace    string
}

func init() {
	rootCmd.AddCommand(newExecCmd())
}

func newExecCmd() *cobra.Command {
	opts := &execOptions{common: DefaultCommonOptions()}

	cmd := &cobra.Command{
		Use:   "exec [flags] -- command [args...]",
		Short: "Run a command with credentials bound",
		Long: `Resolve the requested bindings, run the command with the bound
variables in its environment and mask every bound secret in its output.
The command's exit status is passed through.`,
		Example: `  credbind exec --bind AUTH=usernameColonPasswordBase64:repo-creds -- \
    sh -c 'curl -H "Authorization: Basic $AUTH" https://repo.example.com'
  credbind exec --bindings bindings.yaml --consumer deploy/web -- ./deploy.sh`,
		Args: cobra.MinimumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			return runExec(ctx, cmd, opts, args)
		}),
	}

	// Everything after the command name belongs to the command.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringArrayVar(&opts.binds, "bind", nil, "Binding VAR=type:credentialId (repeatable)")
	cmd.Flags().StringVar(&opts.bindingsFile, "bindings", "", "YAML file of bindings")
	cmd.Flags().StringVar(&opts.consumer, "consumer", "", "Consumer identity used for access control and usage tracking (default $CREDBIND_CONSUMER or \"cli\")")
	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "Working directory for the command and secret files (default current directory)")
	opts.common.RegisterTimeoutFlag(cmd)
	addCredentialsFlag(cmd)

	_ = viper.BindPFlag("consumer", cmd.Flags().Lookup("consumer"))
	return cmd
}

func runExec(ctx *CommandContext, cmd *cobra.Command, opts *execOptions, argv []string) error {
	if err := opts.common.ValidateFlags(); err != nil {
		return err
	}

	declared, err := collectBindings(opts)
	if err != nil {
		return err
	}

	workspace := opts.workspace
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			return fmt.Errorf("failed to determine workspace: %w", err)
		}
	}

	consumer := viper.GetString("consumer")
	if consumer == "" {
		consumer = "cli"
	}

	process, err := executor.NewProcess(argv, workspace)
	if err != nil {
		return err
	}

	runCtx, cancel := opts.common.ApplyToContext(ctx.Context)
	defer cancel()

	result, err := ctx.Container.ScopeRunner().Run(runCtx, services.ScopeRequest{
		ConsumerID: consumer,
		Workspace:  workspace,
		Bindings:   declared,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	}, process)
	if result != nil {
		ctx.Logger.Debug("scope complete",
			"scope", result.ScopeID.Short(),
			"variables", result.Variables,
			"sensitive", result.SensitiveVariables,
			"usage_warnings", len(result.UsageWarnings))
	}
	return err
}

func collectBindings(opts *execOptions) ([]binding.Binding, error) {
	var declared []binding.Binding
	if opts.bindingsFile != "" {
		fromFile, err := bindings.LoadFile(opts.bindingsFile)
		if err != nil {
			return nil, err
		}
		declared = append(declared, fromFile...)
	}

	fromFlags, err := bindings.ParseFlags(opts.binds)
	if err != nil {
		return nil, err
	}
	return append(declared, fromFlags...), nil
}
