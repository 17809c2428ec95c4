package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Compute every cover table once and write the configured sinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := assemble(ctx, rt.cfg, rt.log, true)
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.svc.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s\n", res.Report.RunID)
			for _, t := range res.Tables {
				fmt.Fprintf(out, "  %-32s %6d rows\n", t.Name, len(t.Rows))
			}
			if loss := res.Report.JoinLoss; loss.Rows > 0 {
				fmt.Fprintf(out, "  %d observation rows had no event: %v\n", loss.Rows, loss.EventIDs)
			}
			return nil
		},
	}
}
