package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/credbind/internal/version"
)

func init() {
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of credbind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if format == "text" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Full())
				return err
			}
			return writeStructured(cmd.OutOrStdout(), format, info)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, yaml")
	return cmd
}
