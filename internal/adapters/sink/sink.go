// Package sink writes result tables to a workbook, CSV files or a SQL database.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
)

const dateLayout = "2006-01-02"

// Sink accepts the result tables of a run.
type Sink interface {
	Name() string
	Write(ctx context.Context, tables []table.Table) error
	Close() error
}

// Option configures a sink.
type Option func(*options)

type options struct {
	logger logger.Logger
	now    func() time.Time
}

// WithLogger sets the logger used to report written files and tables.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used to date workbook file names.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds the sink of the given kind from the output configuration.
func New(ctx context.Context, kind string, cfg config.Output, opts ...Option) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case config.SinkWorkbook:
		return NewWorkbookSink(cfg.Dir, cfg.Name, opts...), nil
	case config.SinkCSV:
		return NewCSVSink(cfg.Dir, opts...), nil
	case config.SinkSQL:
		return OpenSQLSink(ctx, cfg.SQLDriver, cfg.SQLDSN, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, kind)
	}
}

// NewAll builds every sink listed in cfg.Sinks. On failure the sinks already
// built are closed.
func NewAll(ctx context.Context, cfg config.Output, opts ...Option) ([]Sink, error) {
	sinks := make([]Sink, 0, len(cfg.Sinks))
	for _, kind := range cfg.Sinks {
		s, err := New(ctx, kind, cfg, opts...)
		if err != nil {
			CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// CloseAll closes every sink, ignoring errors.
func CloseAll(sinks []Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

// formatCell renders a value as text for file outputs.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(dateLayout)
	default:
		return fmt.Sprint(x)
	}
}

// replaceFile writes through a temporary file in the same directory and
// renames it over path.
func replaceFile(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
