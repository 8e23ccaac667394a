package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newUsageCmd())
}

func newUsageCmd() *cobra.Command {
	opts := DefaultCommonOptions()
	var limit int

	cmd := &cobra.Command{
		Use:     "usage <credentialId>",
		Short:   "Show where a credential has been used",
		Example: `  credbind usage repo-creds --limit 20 --format json`,
		Args:    cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}

			records, err := ctx.Container.UsageRepository().FindByCredential(ctx.Context, args[0], limit)
			if err != nil {
				return fmt.Errorf("failed to list usage: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.Format != "table" {
				return writeStructured(out, opts.Format, records)
			}

			if len(records) == 0 {
				_, err := fmt.Fprintf(out, "No usage recorded for %s.\n", args[0])
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "RECORDED\tCONSUMER\tSCOPE"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			for _, r := range records {
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n",
					r.RecordedAt.Local().Format(time.RFC3339),
					r.ConsumerID,
					r.ScopeID.Short(),
				); err != nil {
					return fmt.Errorf("failed to write usage record: %w", err)
				}
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush writer: %w", err)
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records (0 for all)")
	opts.RegisterFormatFlag(cmd)
	return cmd
}
