package sink

import (
	"context"
	"encoding/csv"
	"io"
	"path/filepath"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
)

// CSVSink writes each table to <dir>/<table>.csv.
type CSVSink struct {
	dir  string
	opts options
}

// NewCSVSink creates a CSV sink.
func NewCSVSink(dir string, opts ...Option) *CSVSink {
	return &CSVSink{dir: dir, opts: buildOptions(opts)}
}

// Name implements Sink.
func (s *CSVSink) Name() string { return "csv" }

// Write replaces one file per table.
func (s *CSVSink) Write(ctx context.Context, tables []table.Table) error {
	if len(tables) == 0 {
		return ErrNoTables
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Validate(); err != nil {
			return err
		}
		path := filepath.Join(s.dir, t.Name+".csv")
		if err := replaceFile(path, func(w io.Writer) error { return writeCSV(w, t) }); err != nil {
			return err
		}
		s.opts.logger.Debug(ctx, "csv written", logger.String("path", path), logger.Int("rows", len(t.Rows)))
	}
	return nil
}

// Close implements Sink.
func (s *CSVSink) Close() error { return nil }

func writeCSV(w io.Writer, t table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			rec[i] = formatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
