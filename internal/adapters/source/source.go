// Package source reads the observation and event tables from a monitoring
// database or from its CSV export.
package source

import (
	"context"
	"strings"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/database"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
)

// Source supplies both input tables.
type Source interface {
	Observations(ctx context.Context) ([]model.Observation, error)
	Events(ctx context.Context) ([]model.Event, error)
	Close() error
}

// Option configures a source.
type Option func(*options)

type options struct {
	logger logger.Logger
}

// WithLogger sets the logger used for read summaries.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New opens the source described by cfg. The csv driver reads exported files
// from the directory named by DSN; every other driver goes through database.Open.
func New(ctx context.Context, cfg config.Source, opts ...Option) (Source, error) {
	if strings.EqualFold(cfg.Driver, "csv") {
		return NewCSVSource(cfg, opts...), nil
	}
	o := buildOptions(opts)
	db, err := database.Open(ctx, database.Config{Driver: cfg.Driver, DSN: cfg.DSN}, database.WithLogger(o.logger))
	if err != nil {
		return nil, failure.WrapKind("source.open", failure.ErrExternalIO, err)
	}
	return NewSQLSource(db, cfg, opts...), nil
}
