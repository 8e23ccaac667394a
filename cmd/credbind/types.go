package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/credbind/internal/infrastructure/transforms"
)

// typeView is the rendered form of a binding type descriptor.
type typeView struct {
	Type              string `json:"type" yaml:"type"`
	DisplayName       string `json:"display_name" yaml:"display_name"`
	Accepts           string `json:"accepts" yaml:"accepts"`
	RequiresWorkspace bool   `json:"requires_workspace" yaml:"requires_workspace"`
}

func init() {
	rootCmd.AddCommand(newTypesCmd())
}

func newTypesCmd() *cobra.Command {
	opts := DefaultCommonOptions()

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the available binding types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}

			descs := transforms.NewDefaultRegistry().Descriptors()
			views := make([]typeView, 0, len(descs))
			for _, d := range descs {
				views = append(views, typeView{
					Type:              d.Type,
					DisplayName:       d.DisplayName,
					Accepts:           d.Accepts.String(),
					RequiresWorkspace: d.RequiresWorkspace,
				})
			}

			out := cmd.OutOrStdout()
			if opts.Format != "table" {
				return writeStructured(out, opts.Format, views)
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "TYPE\tNAME\tCREDENTIAL\tWORKSPACE"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			for _, v := range views {
				workspace := "no"
				if v.RequiresWorkspace {
					workspace = "yes"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Type, v.DisplayName, v.Accepts, workspace); err != nil {
					return fmt.Errorf("failed to write type info: %w", err)
				}
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush writer: %w", err)
			}
			return nil
		},
	}

	opts.RegisterFormatFlag(cmd)
	return cmd
}
