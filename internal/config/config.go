// Package config defines the pipeline configuration and its defaults.
//
// Conventions:
//   - New(ctx) builds a Config carrying every default; Load layers file and env on top.
//   - Validate reports the first problem wrapped in ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Sink kinds accepted in output.sinks.
const (
	SinkWorkbook = "xlsx"
	SinkCSV      = "csv"
	SinkSQL      = "sql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address used by serve, e.g. ":9080".
	Addr string `koanf:"addr"`

	// HistorySize bounds how many runs the results repository keeps.
	HistorySize int `koanf:"history_size"`

	// RunQueue bounds how many asynchronous run requests serve holds at once.
	RunQueue int `koanf:"run_queue"`

	// TopN is the number of taxa kept per group in the Top tables.
	TopN int `koanf:"top_n"`

	// StrictDuplicates makes a repeated (event, unit, taxon) row fatal.
	StrictDuplicates bool `koanf:"strict_duplicates"`

	Source   Source   `koanf:"source"`
	Protocol Protocol `koanf:"protocol"`
	Filter   Filter   `koanf:"filter"`
	Output   Output   `koanf:"output"`
	Metrics  Metrics  `koanf:"metrics"`
}

// Source describes where observations and events are read from.
type Source struct {
	// Driver is one of sqlite, pgx, genji, duckdb or csv.
	Driver string `koanf:"driver"`

	// DSN is the driver connection string, or a directory for csv.
	DSN string `koanf:"dsn"`

	ObservationTable string  `koanf:"observation_table"`
	EventTable       string  `koanf:"event_table"`
	Columns          Columns `koanf:"columns"`
}

// Columns maps logical fields to column names in the source tables.
type Columns struct {
	ObservationEventID string `koanf:"observation_event_id"`
	SamplingUnitID     string `koanf:"sampling_unit_id"`
	Taxon              string `koanf:"taxon"`
	HitCount           string `koanf:"hit_count"`

	EventID              string `koanf:"event_id"`
	SiteID               string `koanf:"site_id"`
	StartDate            string `koanf:"start_date"`
	CommunityType        string `koanf:"community_type"`
	UnitCode             string `koanf:"unit_code"`
	SiteName             string `koanf:"site_name"`
	CommunityDescription string `koanf:"community_description"`
	Latitude             string `koanf:"latitude"`
	Longitude            string `koanf:"longitude"`
}

// Protocol pairs the point-intercept density with the per-hit cover constant.
type Protocol struct {
	PointsPerUnit int `koanf:"points_per_unit"`

	// CoverPerHit is derived from PointsPerUnit when zero. When set it must match.
	CoverPerHit float64 `koanf:"cover_per_hit"`
}

// Filter lists the sampling units and taxa removed before cover calculation.
type Filter struct {
	ExcludedTaxa  []string `koanf:"excluded_taxa"`
	ExcludedUnits []string `koanf:"excluded_units"`
}

// Metrics shapes the Prometheus collectors served on /metrics.
type Metrics struct {
	Namespace string `koanf:"namespace"`

	// Labels are constant labels on every collector, e.g. park: PINN.
	Labels map[string]string `koanf:"labels"`
}

// Output configures the result tables and where they are written.
type Output struct {
	// Name is the workbook base name; the run date is appended.
	Name string `koanf:"name"`

	// Dir receives workbook and csv outputs.
	Dir string `koanf:"dir"`

	// Sinks lists the enabled sinks: xlsx, csv, sql.
	Sinks []string `koanf:"sinks"`

	// TablePrefix is prepended to every result table name.
	TablePrefix string `koanf:"table_prefix"`

	// WriteRunReport adds a RunReport table of run counts to every sink.
	WriteRunReport bool `koanf:"write_run_report"`

	SQLDriver string `koanf:"sql_driver"`
	SQLDSN    string `koanf:"sql_dsn"`
}

// New creates a Config populated with the monitoring program defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		HistorySize:      10,
		RunQueue:         1,
		TopN:             2,
		StrictDuplicates: true,
		Source: Source{
			Driver:           "sqlite",
			ObservationTable: "tblNAWMADataset",
			EventTable:       "tblEventsDataset",
			Columns: Columns{
				ObservationEventID:   "EventID",
				SamplingUnitID:       "TransectID",
				Taxon:                "Species",
				HitCount:             "HitsInQuadrat",
				EventID:              "EventID",
				SiteID:               "LocationID",
				StartDate:            "StartDate",
				CommunityType:        "VegCode",
				UnitCode:             "UnitCode",
				SiteName:             "LocName",
				CommunityDescription: "VegDescription",
				Latitude:             "Latitude",
				Longitude:            "Longitude",
			},
		},
		Protocol: Protocol{PointsPerUnit: 50},
		Filter: Filter{
			ExcludedTaxa:  []string{"Litter", "Bare Ground", "Lichen"},
			ExcludedUnits: []string{"NAWMA"},
		},
		Output: Output{
			Name:        "PCM_NAWMA_Vegetation_ClimateVA",
			Dir:         ".",
			Sinks:       []string{SinkWorkbook},
			TablePrefix: "NAWMACover",
		},
		Metrics: Metrics{Namespace: "vegcover"},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top_n must be >= 1, got %d", ErrInvalidConfig, c.TopN)
	case c.HistorySize < 1:
		return fmt.Errorf("%w: history_size must be >= 1, got %d", ErrInvalidConfig, c.HistorySize)
	case c.Metrics.Namespace == "":
		return fmt.Errorf("%w: metrics.namespace must not be empty", ErrInvalidConfig)
	case c.RunQueue < 1:
		return fmt.Errorf("%w: run_queue must be >= 1, got %d", ErrInvalidConfig, c.RunQueue)
	case c.Protocol.PointsPerUnit < 1:
		return fmt.Errorf("%w: protocol.points_per_unit must be >= 1, got %d", ErrInvalidConfig, c.Protocol.PointsPerUnit)
	case c.Protocol.CoverPerHit < 0:
		return fmt.Errorf("%w: protocol.cover_per_hit must not be negative", ErrInvalidConfig)
	case c.Source.ObservationTable == "" || c.Source.EventTable == "":
		return fmt.Errorf("%w: source tables must be named", ErrInvalidConfig)
	case len(c.Output.Sinks) == 0:
		return fmt.Errorf("%w: output.sinks must list at least one sink", ErrInvalidConfig)
	}
	if !slices.Contains([]string{"sqlite", "pgx", "genji", "duckdb", "csv"}, c.Source.Driver) {
		return fmt.Errorf("%w: unsupported source.driver %q", ErrInvalidConfig, c.Source.Driver)
	}
	for _, s := range c.Output.Sinks {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case SinkWorkbook, SinkCSV:
		case SinkSQL:
			if c.Output.SQLDriver == "" || c.Output.SQLDSN == "" {
				return fmt.Errorf("%w: sql sink needs output.sql_driver and output.sql_dsn", ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown sink %q", ErrInvalidConfig, s)
		}
	}
	return nil
}
