package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/dedupe"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/enrich"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/filter"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
)

func validateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the source tables and report counts and join loss without writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := assemble(ctx, rt.cfg, rt.log, false)
			if err != nil {
				return err
			}
			defer p.Close()

			obs, events, err := p.svc.Read(ctx)
			if err != nil {
				return err
			}
			idx, err := model.NewEventIndex(events)
			if err != nil {
				return failure.WrapKind("validate.events", failure.ErrInvalidData, err)
			}
			matched, unmatched := enrich.Partition(obs, idx)
			loss := enrich.Loss(unmatched)
			_, stats := filter.New(
				filter.WithExcludedTaxa(rt.cfg.Filter.ExcludedTaxa...),
				filter.WithExcludedUnits(rt.cfg.Filter.ExcludedUnits...),
			).Apply(matched)
			dups := dedupe.Scan(obs)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "events:        %d\n", idx.Len())
			fmt.Fprintf(out, "observations:  %d\n", len(obs))
			fmt.Fprintf(out, "unmatched:     %d rows %v\n", loss.Rows, loss.EventIDs)
			fmt.Fprintf(out, "duplicates:    %d\n", len(dups))
			fmt.Fprintf(out, "retained:      %d\n", stats.Retained)
			fmt.Fprintf(out, "excluded unit: %d\n", stats.ExcludedUnit)
			fmt.Fprintf(out, "excluded taxa: %d\n", stats.ExcludedTaxon)
			return nil
		},
	}
}
