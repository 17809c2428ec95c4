package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/http/api"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/mq/queue"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/mq/worker"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/repository"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const (
	observationsCSV = `EventID,TransectID,Species,HitsInQuadrat
E1,A,Oak,10
E1,B,Oak,5
E1,A,Grass,2
E1,NAWMA,Oak,30
E2,A,Oak,4
E2,A,Litter,8
E3,A,Oak,1
`
	eventsCSV = `EventID,LocationID,StartDate,VegCode,VegDescription
E1,L1,2020-04-15,OAK,Oak woodland
E2,L2,2021-04-20,OAK,
`
)

// fixture writes the csv exports and a config pointing at them, and returns
// the config path and the output directory.
func fixture(t *testing.T, events string, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	for _, d := range []string{in, out} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	write := func(path, body string) {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(in, "tblNAWMADataset.csv"), observationsCSV)
	write(filepath.Join(in, "tblEventsDataset.csv"), events)

	cfg := "log_level: error\n" +
		"source:\n  driver: csv\n  dsn: " + in + "\n" +
		"output:\n  dir: " + out + "\n  sinks: [csv, xlsx]\n" + extra
	path := filepath.Join(dir, "vegcover.yaml")
	write(path, cfg)
	return path, out
}

func TestCommands(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given csv exports and a config file", t, func() {
		path, out := fixture(t, eventsCSV, "")
		var stdout, stderr bytes.Buffer

		convey.Convey("When run is executed", func() {
			code := executeWith(ctx, []string{"run", "--config", path}, &stdout, &stderr)

			convey.Convey("Then every table is written and summarised", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "NAWMACoverEventALL")
				convey.So(stdout.String(), convey.ShouldContainSubstring, "NAWMACoverCommunityTopTwo")
				convey.So(stdout.String(), convey.ShouldContainSubstring, "1 observation rows had no event: [E3]")

				for _, name := range []string{
					"NAWMACoverEventALL", "NAWMACoverEventTopTwo",
					"NAWMACoverMonCycleAll", "NAWMACoverMonCycleTopTwo",
					"NAWMACoverCommunity", "NAWMACoverCommunityTopTwo",
				} {
					_, err := os.Stat(filepath.Join(out, name+".csv"))
					convey.So(err, convey.ShouldBeNil)
				}
				books, err := filepath.Glob(filepath.Join(out, "PCM_NAWMA_Vegetation_ClimateVA_*.xlsx"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(books), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When validate is executed", func() {
			code := executeWith(ctx, []string{"validate", "--config", path}, &stdout, &stderr)

			convey.Convey("Then counts are printed and nothing is written", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "events:        2")
				convey.So(stdout.String(), convey.ShouldContainSubstring, "observations:  7")
				convey.So(stdout.String(), convey.ShouldContainSubstring, "unmatched:     1 rows [E3]")
				convey.So(stdout.String(), convey.ShouldContainSubstring, "retained:      4")
				entries, err := os.ReadDir(out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(entries, convey.ShouldBeEmpty)
			})
		})
	})

	convey.Convey("Given an event export without the community column", t, func() {
		path, _ := fixture(t, "EventID,LocationID,StartDate\nE1,L1,2020-04-15\n", "")
		var stdout, stderr bytes.Buffer

		convey.Convey("Then run exits with the configuration code", func() {
			code := executeWith(ctx, []string{"run", "--config", path}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, exitConfiguration)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "VegCode")
		})
	})

	convey.Convey("Given an invalid configuration", t, func() {
		path, _ := fixture(t, eventsCSV, "top_n: 0\n")
		var stdout, stderr bytes.Buffer

		convey.Convey("Then every command refuses to start", func() {
			code := executeWith(ctx, []string{"run", "--config", path}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, exitConfiguration)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "top_n")
		})
	})

	convey.Convey("Given an unknown subcommand", t, func() {
		var stdout, stderr bytes.Buffer
		code := executeWith(ctx, []string{"frobnicate"}, &stdout, &stderr)
		convey.So(code, convey.ShouldEqual, exitInternal)
	})
}

func TestExitCode(t *testing.T) {
	convey.Convey("Given failures of every kind", t, func() {
		convey.So(exitCode(nil), convey.ShouldEqual, exitOK)
		convey.So(exitCode(failure.NewKind("x", failure.ErrConfiguration)), convey.ShouldEqual, exitConfiguration)
		convey.So(exitCode(failure.NewKind("x", failure.ErrInvalidData)), convey.ShouldEqual, exitData)
		convey.So(exitCode(failure.NewKind("x", failure.ErrJoinMismatch)), convey.ShouldEqual, exitData)
		convey.So(exitCode(failure.NewKind("x", failure.ErrExternalIO)), convey.ShouldEqual, exitIO)
		convey.So(exitCode(errors.New("boom")), convey.ShouldEqual, exitInternal)
	})
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given the serve HTTP server", t, func() {
		srv := newHTTPServer(":0", repository.New(), nil)

		convey.Convey("Then it carries timeouts and the API routes", func() {
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
			convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)

			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			w = httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})

	convey.Convey("Given a server with a run queue", t, func() {
		runs := queue.NewInMemoryQueue()
		srv := newHTTPServer(":0", repository.New(), nil, api.WithScheduler(runs))

		convey.Convey("Then asynchronous runs are accepted", func() {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runs?async=true", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusAccepted)
			convey.So(runs.Len(context.Background()), convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given a running worker", t, func() {
		runs := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(runs, nil, worker.WithLogger(logger.Nop()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("Then stopWorker closes the queue and waits for the loop", func() {
			stopWorker(ctx, runs, w, logger.Nop())
			convey.So(runs.IsClosed(), convey.ShouldBeTrue)
			_, open := <-w.Done()
			convey.So(open, convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		srv := newHTTPServer("127.0.0.1:0", repository.New(), nil)

		convey.Convey("Then the server shuts down cleanly", func() {
			convey.So(listenAndServe(ctx, srv, logger.Nop()), convey.ShouldBeNil)
		})
	})
}
