package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/repository"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSource struct {
	obs       []model.Observation
	events    []model.Event
	obsErr    error
	eventsErr error
}

func (f *fakeSource) Observations(context.Context) ([]model.Observation, error) {
	return f.obs, f.obsErr
}

func (f *fakeSource) Events(context.Context) ([]model.Event, error) {
	return f.events, f.eventsErr
}

type fakeSink struct {
	mu     sync.Mutex
	name   string
	err    error
	writes [][]table.Table
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Write(_ context.Context, tables []table.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, tables)
	return nil
}

func TestServiceRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with two sinks and a results store", t, func() {
		src := &fakeSource{obs: fixtureObservations(), events: fixtureEvents()}
		xlsx := &fakeSink{name: "xlsx"}
		csv := &fakeSink{name: "csv"}
		store := repository.New()
		svc := New(src, WithSinks(xlsx, csv, nil), WithPublisher(store), WithParams(DefaultParams()))

		Convey("When a run succeeds", func() {
			res, err := svc.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then every sink receives the six tables", func() {
				So(len(xlsx.writes), ShouldEqual, 1)
				So(len(csv.writes), ShouldEqual, 1)
				So(len(xlsx.writes[0]), ShouldEqual, 6)
			})

			Convey("Then the run is published", func() {
				latest, err := store.Latest(ctx)
				So(err, ShouldBeNil)
				So(latest.ID, ShouldEqual, res.Report.RunID)
				tbl, err := store.Table(ctx, "NAWMACoverEventALL")
				So(err, ShouldBeNil)
				So(len(tbl.Rows), ShouldEqual, 6)
			})
		})

		Convey("When the run is triggered", func() {
			rep, err := svc.Trigger(ctx)

			Convey("Then the report is returned", func() {
				So(err, ShouldBeNil)
				So(rep.JoinLoss.Rows, ShouldEqual, 1)
				So(svc.Params().TopN, ShouldEqual, 2)
			})
		})

		Convey("When the source fails", func() {
			src.eventsErr = io.ErrUnexpectedEOF
			_, err := svc.Run(ctx)

			Convey("Then the failure is an external io error and nothing is written", func() {
				So(errors.Is(err, failure.ErrExternalIO), ShouldBeTrue)
				So(errors.Is(err, io.ErrUnexpectedEOF), ShouldBeTrue)
				So(err.Error(), ShouldStartWith, "source.events")
				So(xlsx.writes, ShouldBeEmpty)
				_, err = store.Latest(ctx)
				So(errors.Is(err, repository.ErrNoRun), ShouldBeTrue)
			})
		})

		Convey("When the source reports a missing column", func() {
			src.obsErr = failure.NewKind("source.observations", failure.ErrConfiguration)
			_, err := svc.Run(ctx)

			Convey("Then the configuration kind is kept", func() {
				So(errors.Is(err, failure.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(err, failure.ErrExternalIO), ShouldBeFalse)
			})
		})

		Convey("When a sink fails", func() {
			csv.err = errors.New("disk full")
			_, err := svc.Run(ctx)

			Convey("Then the run fails as external io naming the sink", func() {
				So(errors.Is(err, failure.ErrExternalIO), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "sink.csv")
				_, err = store.Latest(ctx)
				So(errors.Is(err, repository.ErrNoRun), ShouldBeTrue)
			})
		})

		Convey("When the data is invalid", func() {
			src.obs = append(fixtureObservations(), model.Observation{EventID: "E1", SamplingUnitID: "A", Taxon: "Oak"})
			_, err := svc.Run(ctx)

			Convey("Then the invalid data kind reaches the caller", func() {
				So(errors.Is(err, failure.ErrInvalidData), ShouldBeTrue)
				So(failure.KindOf(err), ShouldEqual, "invalid_data")
			})
		})

		Convey("When the inputs are read directly", func() {
			obs, events, err := svc.Read(ctx)

			Convey("Then both tables come back", func() {
				So(err, ShouldBeNil)
				So(len(obs), ShouldEqual, 12)
				So(len(events), ShouldEqual, 4)
			})
		})
	})

	Convey("Given withKind", t, func() {
		Convey("Then cancellation is not relabelled as io", func() {
			err := withKind("source.events", failure.ErrExternalIO, context.Canceled)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(errors.Is(err, failure.ErrExternalIO), ShouldBeFalse)
		})

		Convey("Then nil stays nil", func() {
			So(withKind("x", failure.ErrExternalIO, nil), ShouldBeNil)
		})
	})
}
