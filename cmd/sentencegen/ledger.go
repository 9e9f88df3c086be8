package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLedgerCommand(root *rootOptions) *cobra.Command {
	var withText bool
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List the identifiers that already have a stored result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := root.buildApp(ctx, cfg, logger, true)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !withText {
				ids, err := a.CompletedIDs(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			results, err := a.Results(ctx)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s\t%s\t%s\n", r.ID, r.Model, r.GeneratedAt.UTC().Format(time.RFC3339))
				for _, s := range r.Sentences {
					fmt.Fprintf(out, "  %s  %s\n", s.Chinese(), s.English)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withText, "sentences", false, "also print each stored result's sentences")
	return cmd
}
