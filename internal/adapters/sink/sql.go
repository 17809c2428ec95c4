package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/database"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
)

// SQLSink drops, recreates and fills every table in one transaction, so a
// failed write leaves the previous run's tables in place.
type SQLSink struct {
	db   *database.Database
	opts options
}

// OpenSQLSink opens the database the tables are written to.
func OpenSQLSink(ctx context.Context, driver, dsn string, opts ...Option) (*SQLSink, error) {
	o := buildOptions(opts)
	db, err := database.Open(ctx, database.Config{Driver: driver, DSN: dsn}, database.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return &SQLSink{db: db, opts: o}, nil
}

// NewSQLSink writes to an already open database. Close closes db.
func NewSQLSink(db *database.Database, opts ...Option) *SQLSink {
	return &SQLSink{db: db, opts: buildOptions(opts)}
}

// Name implements Sink.
func (s *SQLSink) Name() string { return "sql" }

// Write replaces every table.
func (s *SQLSink) Write(ctx context.Context, tables []table.Table) (err error) {
	if len(tables) == 0 {
		return ErrNoTables
	}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, t := range tables {
		if err = s.replace(ctx, tx, t); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	for _, t := range tables {
		s.opts.logger.Debug(ctx, "sql table written",
			logger.String("driver", s.db.Driver),
			logger.String("table", t.Name),
			logger.Int("rows", len(t.Rows)),
		)
	}
	return nil
}

// Close closes the database.
func (s *SQLSink) Close() error { return s.db.Close() }

func (s *SQLSink) replace(ctx context.Context, tx *sql.Tx, t table.Table) error {
	d := s.db.Dialect
	if _, err := tx.ExecContext(ctx, d.DropTable(t.Name)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, d.CreateTable(t)); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, d.Insert(t))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			args[i] = bindValue(d, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func bindValue(d database.Dialect, v any) any {
	switch x := v.(type) {
	case time.Time:
		if d.DateAsText() {
			return x.Format(dateLayout)
		}
		return x
	case int:
		return int64(x)
	default:
		return v
	}
}
