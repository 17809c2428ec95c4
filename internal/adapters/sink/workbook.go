package sink

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
)

const (
	maxSheetName = 31
	defaultSheet = "Sheet1"
	fmtShortDate = 14 // m/d/yyyy
)

// WorkbookSink writes one worksheet per table into <dir>/<name>_<YYYYMMDD>.xlsx.
// An existing workbook of the same day is replaced.
type WorkbookSink struct {
	dir  string
	name string
	opts options
}

// NewWorkbookSink creates a workbook sink.
func NewWorkbookSink(dir, name string, opts ...Option) *WorkbookSink {
	return &WorkbookSink{dir: dir, name: name, opts: buildOptions(opts)}
}

// Name implements Sink.
func (s *WorkbookSink) Name() string { return "xlsx" }

// Path returns the file the next write produces.
func (s *WorkbookSink) Path() string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.xlsx", s.name, s.opts.now().Format("20060102")))
}

// Write builds the workbook in memory and replaces the file.
func (s *WorkbookSink) Write(ctx context.Context, tables []table.Table) error {
	if len(tables) == 0 {
		return ErrNoTables
	}
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	date, err := f.NewStyle(&excelize.Style{NumFmt: fmtShortDate})
	if err != nil {
		return err
	}

	seen := make(map[string]string, len(tables))
	for i, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Validate(); err != nil {
			return err
		}
		sheet := sheetName(t.Name)
		if prev, ok := seen[sheet]; ok {
			return fmt.Errorf("%w: %s and %s", ErrSheetName, prev, t.Name)
		}
		seen[sheet] = t.Name

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := writeSheet(f, sheet, t, header, date); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	path := s.Path()
	if err := replaceFile(path, func(w io.Writer) error { return f.Write(w) }); err != nil {
		return err
	}
	s.opts.logger.Info(ctx, "workbook written", logger.String("path", path), logger.Int("sheets", len(tables)))
	return nil
}

// Close implements Sink.
func (s *WorkbookSink) Close() error { return nil }

func writeSheet(f *excelize.File, sheet string, t table.Table, headerStyle, dateStyle int) error {
	names := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
		if c.Kind != table.Date {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColStyle(sheet, col, dateStyle); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &names); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		vals := row
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}
	return nil
}

// sheetName trims a table name to the worksheet name limit.
func sheetName(name string) string {
	r := []rune(name)
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	return string(r)
}
