package main

import (
	"context"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/sink"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/source"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/app"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/cover"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
)

// paramsFrom maps configuration onto pipeline parameters.
func paramsFrom(cfg *config.Config) app.Params {
	return app.Params{
		ExcludedTaxa:     cfg.Filter.ExcludedTaxa,
		ExcludedUnits:    cfg.Filter.ExcludedUnits,
		Protocol:         cover.Protocol{PointsPerUnit: cfg.Protocol.PointsPerUnit},
		CoverPerHit:      cfg.Protocol.CoverPerHit,
		TopN:             cfg.TopN,
		StrictDuplicates: cfg.StrictDuplicates,
		TablePrefix:      cfg.Output.TablePrefix,
		WriteRunReport:   cfg.Output.WriteRunReport,
	}
}

// pipeline is an assembled service with the resources it owns.
type pipeline struct {
	svc    *app.Service
	source source.Source
	sinks  []sink.Sink
}

func (p *pipeline) Close() {
	sink.CloseAll(p.sinks)
	if p.source != nil {
		_ = p.source.Close()
	}
}

// assemble opens the source and the sinks and builds the service. withSinks
// is false for commands that only read.
func assemble(ctx context.Context, cfg *config.Config, log logger.Logger, withSinks bool, opts ...app.Option) (*pipeline, error) {
	src, err := source.New(ctx, cfg.Source, source.WithLogger(log.Named("source")))
	if err != nil {
		return nil, err
	}
	p := &pipeline{source: src}

	if withSinks {
		p.sinks, err = sink.NewAll(ctx, cfg.Output, sink.WithLogger(log.Named("sink")))
		if err != nil {
			p.Close()
			return nil, failure.WrapKind("sink.open", failure.ErrExternalIO, err)
		}
	}

	appSinks := make([]app.Sink, len(p.sinks))
	for i, s := range p.sinks {
		appSinks[i] = s
	}
	opts = append([]app.Option{
		app.WithParams(paramsFrom(cfg)),
		app.WithSinks(appSinks...),
		app.WithLogger(log.Named("pipeline")),
	}, opts...)
	p.svc = app.New(src, opts...)
	return p, nil
}
