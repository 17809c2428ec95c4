// Package repository keeps the results of published runs in memory for the HTTP API.
package repository

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/report"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

const defaultHistorySize = 10

// Run is one published pipeline result.
type Run struct {
	ID          string
	CompletedAt time.Time
	Report      report.Report
	Tables      []table.Table
}

// Summary describes a run without its tables.
type Summary struct {
	ID          string         `json:"id"`
	CompletedAt time.Time      `json:"completed_at"`
	TableRows   map[string]int `json:"table_rows"`
}

// Snapshot is an immutable view of the store. Readers never lock.
type Snapshot struct {
	Runs   []Run // newest first
	byName map[string]table.Table
}

// Store publishes runs and serves the latest one.
type Store struct {
	mu          sync.Mutex // serialises writers
	historySize int

	// snapshot is atomic pointer to a Snapshot struct
	snapshot atomic.Pointer[Snapshot]
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{historySize: defaultHistorySize}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{byName: map[string]table.Table{}})
	return s
}

// Publish makes run the latest and drops runs beyond the history size.
func (s *Store) Publish(ctx context.Context, run Run) error {
	if run.ID == "" {
		return ErrEmptyRun
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshot.Load()
	runs := make([]Run, 0, min(len(prev.Runs)+1, s.historySize))
	runs = append(runs, run)
	for _, r := range prev.Runs {
		if len(runs) == s.historySize {
			break
		}
		runs = append(runs, r)
	}

	byName := make(map[string]table.Table, len(run.Tables))
	for _, t := range run.Tables {
		byName[t.Name] = t
	}
	s.snapshot.Store(&Snapshot{Runs: runs, byName: byName})
	metrics.UpdateRepositoryRuns(len(runs))
	return nil
}

// Latest returns the most recent run.
func (s *Store) Latest(_ context.Context) (Run, error) {
	snap := s.snapshot.Load()
	if len(snap.Runs) == 0 {
		return Run{}, ErrNoRun
	}
	return snap.Runs[0], nil
}

// Table returns a table of the latest run by name.
func (s *Store) Table(_ context.Context, name string) (table.Table, error) {
	snap := s.snapshot.Load()
	if len(snap.Runs) == 0 {
		return table.Table{}, ErrNoRun
	}
	t, ok := snap.byName[name]
	if !ok {
		return table.Table{}, ErrNotFound
	}
	return t, nil
}

// TableNames lists the tables of the latest run in output order.
func (s *Store) TableNames(_ context.Context) ([]string, error) {
	snap := s.snapshot.Load()
	if len(snap.Runs) == 0 {
		return nil, ErrNoRun
	}
	names := make([]string, len(snap.Runs[0].Tables))
	for i, t := range snap.Runs[0].Tables {
		names[i] = t.Name
	}
	return names, nil
}

// Runs summarises the retained runs, newest first.
func (s *Store) Runs(_ context.Context) []Summary {
	snap := s.snapshot.Load()
	out := make([]Summary, len(snap.Runs))
	for i, r := range snap.Runs {
		out[i] = Summary{ID: r.ID, CompletedAt: r.CompletedAt, TableRows: r.Report.TableRows}
	}
	return out
}

// Run returns a retained run by id.
func (s *Store) Run(_ context.Context, id string) (Run, error) {
	snap := s.snapshot.Load()
	i := slices.IndexFunc(snap.Runs, func(r Run) bool { return r.ID == id })
	if i < 0 {
		return Run{}, ErrNotFound
	}
	return snap.Runs[i], nil
}
