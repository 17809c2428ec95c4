package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/http/api"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/mq/queue"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/mq/worker"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/repository"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/app"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 5 * time.Minute // POST /runs waits for a full run
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func serveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run once, then serve the results over HTTP and accept new runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store := repository.New(repository.WithHistorySize(rt.cfg.HistorySize))
			p, err := assemble(ctx, rt.cfg, rt.log, true, app.WithPublisher(store))
			if err != nil {
				return err
			}
			defer p.Close()

			// A failed first run is logged; the server still starts so a run can be retried.
			if _, err := p.svc.Run(ctx); err != nil {
				rt.log.Warn(ctx, "initial run failed", logger.String("kind", failure.KindOf(err)), logger.Error(err))
			}

			runs := queue.NewInMemoryQueue(queue.WithCapacity(rt.cfg.RunQueue))
			w := worker.NewInMemoryWorker(runs, p.svc, worker.WithName("runs"), worker.WithLogger(rt.log.Named("worker")))
			go w.Run(ctx)
			defer stopWorker(ctx, runs, w, rt.log)

			srv := newHTTPServer(rt.cfg.Addr, store, p.svc, api.WithScheduler(runs))
			return listenAndServe(ctx, srv, rt.log)
		},
	}
}

// stopWorker refuses further run requests and waits for a run in progress.
func stopWorker(ctx context.Context, runs *queue.InMemoryQueue, w *worker.InMemoryWorker, log logger.Logger) {
	_ = runs.Close()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := w.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "worker shutdown failed", logger.Error(err))
	}
}

func newHTTPServer(addr string, store api.Results, runner api.Runner, opts ...api.Option) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(store, runner, opts...).Register(mux)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// listenAndServe serves until ctx is done, then shuts down gracefully.
func listenAndServe(ctx context.Context, srv *http.Server, log logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return failure.WrapKind("http.listen", failure.ErrExternalIO, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return failure.Wrap("http.shutdown", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
