// Package worker drains queued run requests and executes them one at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/mq/queue"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/report"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

// Runner executes one pipeline run.
type Runner interface {
	Trigger(ctx context.Context) (report.Report, error)
}

// Queue defines how workers receive run requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Worker processes run requests using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// A run already in progress is allowed to finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing run requests.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "queued run failed",
					logger.String("request_id", r.ID),
					logger.String("kind", failure.KindOf(err)),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once the worker loop has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, r queue.Request) error {
	w.logger.Info(ctx, "starting queued run",
		logger.String("request_id", r.ID),
		logger.Duration("waited", time.Since(r.RequestedAt)),
	)

	rep, err := w.runner.Trigger(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("worker", failure.KindOf(err))
		return fmt.Errorf("request %s: %w", r.ID, err)
	}

	w.logger.Info(ctx, "queued run completed",
		logger.String("request_id", r.ID),
		logger.String("run_id", rep.RunID),
	)
	return nil
}
