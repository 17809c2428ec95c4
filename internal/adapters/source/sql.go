package source

import (
	"context"
	"fmt"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/database"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

// SQLSource reads the input tables over database/sql.
type SQLSource struct {
	db      *database.Database
	obsName string
	evtName string
	columns ColumnMap
	logger  logger.Logger
}

// NewSQLSource reads from an open database. Close closes db.
func NewSQLSource(db *database.Database, cfg config.Source, opts ...Option) *SQLSource {
	o := buildOptions(opts)
	return &SQLSource{
		db:      db,
		obsName: cfg.ObservationTable,
		evtName: cfg.EventTable,
		columns: NewColumnMap(cfg.Columns),
		logger:  o.logger,
	}
}

// Observations reads the observation table.
func (s *SQLSource) Observations(ctx context.Context) ([]model.Observation, error) {
	var out []model.Observation
	err := s.scan(ctx, opObservations, s.obsName, s.columns.observations, func(pos positions, row []any, n int) error {
		o, err := decodeObservation(pos, row, n)
		if err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Events reads the event table.
func (s *SQLSource) Events(ctx context.Context) ([]model.Event, error) {
	var out []model.Event
	err := s.scan(ctx, opEvents, s.evtName, s.columns.events, func(pos positions, row []any, n int) error {
		e, err := decodeEvent(pos, row, n)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

func (s *SQLSource) scan(ctx context.Context, op, name string, specs []fieldSpec, fn func(positions, []any, int) error) error {
	if s.db == nil || s.db.DB == nil {
		return failure.WrapKind(op, failure.ErrExternalIO, ErrClosed)
	}
	rows, err := s.db.DB.QueryContext(ctx, s.db.Dialect.SelectAll(name))
	if err != nil {
		return ioError(ctx, op, fmt.Errorf("query %s: %w", name, err))
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return failure.WrapKind(op, failure.ErrExternalIO, err)
	}
	pos, err := resolve(op, name, specs, header)
	if err != nil {
		return err
	}

	vals := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	n := 0
	for rows.Next() {
		n++
		if err := rows.Scan(ptrs...); err != nil {
			return failure.WrapKind(op, failure.ErrExternalIO, err).WithRow(n)
		}
		if err := fn(pos, vals, n); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return ioError(ctx, op, err)
	}

	metrics.AddSourceRows(name, n)
	s.logger.Debug(ctx, "table read", logger.String("table", name), logger.Int("rows", n))
	return nil
}

// ioError labels err as external io unless the context ended first.
func ioError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return failure.Wrap(op, ctxErr)
	}
	return failure.WrapKind(op, failure.ErrExternalIO, err)
}
