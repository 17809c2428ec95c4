// Package app wires sources, the cover pipeline, sinks and the results store.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/repository"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/report"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

// Source supplies the two input tables.
type Source interface {
	Observations(ctx context.Context) ([]model.Observation, error)
	Events(ctx context.Context) ([]model.Event, error)
}

// Sink accepts the result tables of a run.
type Sink interface {
	Name() string
	Write(ctx context.Context, tables []table.Table) error
}

// Publisher receives every successful run.
type Publisher interface {
	Publish(ctx context.Context, run repository.Run) error
}

// Service runs the pipeline end to end.
type Service struct {
	mu sync.Mutex // one run at a time

	source    Source
	sinks     []Sink
	publisher Publisher
	params    Params

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSinks adds sinks written after every successful computation.
func WithSinks(sinks ...Sink) Option {
	return func(s *Service) {
		for _, sk := range sinks {
			if sk != nil {
				s.sinks = append(s.sinks, sk)
			}
		}
	}
}

// WithPublisher sets where finished runs are published, usually a repository.Store.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithParams sets the pipeline parameters.
func WithParams(p Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithLogger sets a custom logger for the service. Without it the service is silent.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service reading from source.
func New(source Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		params: DefaultParams(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Params returns the parameters the service runs with.
func (s *Service) Params() Params { return s.params }

// Run reads the source, computes every table, writes all sinks and publishes
// the result. Errors carry a failure kind; nothing here exits the process.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res, err := s.run(ctx)
	if err != nil {
		kind := failure.KindOf(err)
		metrics.RecordErrorByComponent("pipeline", kind)
		metrics.RecordRun("failure", time.Since(start))
		s.logger.Error(ctx, "run failed", logger.String("kind", kind), logger.Error(err))
		return nil, err
	}
	metrics.RecordRun("success", time.Since(start))
	s.logger.Info(ctx, "run completed",
		logger.String("run_id", res.Report.RunID),
		logger.Int("tables", len(res.Tables)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Trigger runs the pipeline and returns only its report.
func (s *Service) Trigger(ctx context.Context) (report.Report, error) {
	res, err := s.Run(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return res.Report, nil
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	obs, events, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	res, err := Compute(ctx, obs, events, s.params)
	if err != nil {
		return nil, err
	}
	s.logReport(ctx, res.Report, res.Tables)

	if err := s.write(ctx, res.Tables); err != nil {
		return nil, err
	}
	for _, t := range res.Tables {
		metrics.UpdateTableRows(t.Name, len(t.Rows))
	}

	if s.publisher != nil {
		run := repository.Run{
			ID:          res.Report.RunID,
			CompletedAt: time.Now().UTC(),
			Report:      res.Report,
			Tables:      res.Tables,
		}
		if err := s.publisher.Publish(ctx, run); err != nil {
			return nil, failure.Wrap("publish", err)
		}
	}
	return res, nil
}

// Read loads both input tables concurrently.
func (s *Service) Read(ctx context.Context) ([]model.Observation, []model.Event, error) {
	return s.read(ctx)
}

func (s *Service) read(ctx context.Context) ([]model.Observation, []model.Event, error) {
	start := time.Now()
	var (
		obs    []model.Observation
		events []model.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		obs, err = s.source.Observations(gctx)
		return withKind("source.observations", failure.ErrExternalIO, err)
	})
	g.Go(func() error {
		var err error
		events, err = s.source.Events(gctx)
		return withKind("source.events", failure.ErrExternalIO, err)
	})
	if err := g.Wait(); err != nil {
		metrics.RecordErrorByComponent("source", failure.KindOf(err))
		return nil, nil, err
	}
	metrics.RecordStageLatency("read", time.Since(start))
	s.logger.Info(ctx, "source read",
		logger.Int("observations", len(obs)),
		logger.Int("events", len(events)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return obs, events, nil
}

func (s *Service) write(ctx context.Context, tables []table.Table) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sk := range s.sinks {
		sk := sk
		g.Go(func() error {
			start := time.Now()
			err := sk.Write(gctx, tables)
			if err != nil {
				metrics.RecordSinkWrite(sk.Name(), "failure", time.Since(start))
				err = withKind("sink."+sk.Name(), failure.ErrExternalIO, err)
				metrics.RecordErrorByComponent("sink", failure.KindOf(err))
				return err
			}
			metrics.RecordSinkWrite(sk.Name(), "success", time.Since(start))
			s.logger.Info(gctx, "sink written", logger.String("sink", sk.Name()), logger.Duration("elapsed", time.Since(start)))
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) logReport(ctx context.Context, r report.Report, tables []table.Table) {
	s.logger.Info(ctx, "observations filtered",
		logger.Int("input", r.Filter.Input),
		logger.Int("retained", r.Filter.Retained),
		logger.Int("excluded_unit", r.Filter.ExcludedUnit),
		logger.Int("excluded_taxon", r.Filter.ExcludedTaxon),
		logger.Float64("cover_per_hit", r.CoverPerHit),
	)
	if r.JoinLoss.Rows > 0 {
		s.logger.Warn(ctx, "observations dropped by event join",
			logger.Int("rows", r.JoinLoss.Rows),
			logger.Strings("event_ids", r.JoinLoss.EventIDs),
		)
	}
	if r.Duplicates > 0 {
		s.logger.Warn(ctx, "duplicate observations summed", logger.Int("rows", r.Duplicates))
	}
	for _, scale := range model.Scales {
		if keys := r.EmptyGroups[scale.String()]; len(keys) > 0 {
			s.logger.Warn(ctx, "groups without retained taxa",
				logger.String("scale", scale.String()),
				logger.Int("groups", len(keys)),
			)
		}
	}
	for _, t := range tables {
		s.logger.Info(ctx, "table built", logger.String("table", t.Name), logger.Int("rows", len(t.Rows)))
	}
}

// withKind attributes err to op under kind unless it already carries a kind.
func withKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	var fe *failure.Error
	if errors.As(err, &fe) && fe.Kind != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return failure.Wrap(op, err)
	}
	return failure.WrapKind(op, kind, err)
}
