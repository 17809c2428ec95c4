package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

const utf8BOM = "\uFEFF"

// CSVSource reads <dir>/<table>.csv files exported from the monitoring database.
type CSVSource struct {
	dir     string
	obsName string
	evtName string
	columns ColumnMap
	logger  logger.Logger
}

// NewCSVSource reads from the directory named by cfg.DSN.
func NewCSVSource(cfg config.Source, opts ...Option) *CSVSource {
	o := buildOptions(opts)
	dir := cfg.DSN
	if dir == "" {
		dir = "."
	}
	return &CSVSource{
		dir:     dir,
		obsName: cfg.ObservationTable,
		evtName: cfg.EventTable,
		columns: NewColumnMap(cfg.Columns),
		logger:  o.logger,
	}
}

// Observations reads the observation export.
func (s *CSVSource) Observations(ctx context.Context) ([]model.Observation, error) {
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

// Events reads the event export.
func (s *CSVSource) Events(ctx context.Context) ([]model.Event, error) {
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

// Close is a no-op; files are opened per read.
func (s *CSVSource) Close() error { return nil }

func (s *CSVSource) scan(ctx context.Context, op, name string, specs []fieldSpec, fn func(positions, []any, int) error) error {
	path := filepath.Join(s.dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		return failure.WrapKind(op, failure.ErrExternalIO, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%s: empty file", path)
		}
		return failure.WrapKind(op, failure.ErrExternalIO, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	pos, err := resolve(op, name, specs, header)
	if err != nil {
		return err
	}

	n := 0
	row := make([]any, len(header))
	for {
		if err := ctx.Err(); err != nil {
			return failure.Wrap(op, err)
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return failure.WrapKind(op, failure.ErrExternalIO, err).WithRow(n + 1)
		}
		n++
		for i := range row {
			row[i] = nil
			if i < len(rec) {
				row[i] = rec[i]
			}
		}
		if err := fn(pos, row, n); err != nil {
			return err
		}
	}

	metrics.AddSourceRows(name, n)
	s.logger.Debug(ctx, "table read", logger.String("table", name), logger.Int("rows", n), logger.String("path", path))
	return nil
}
