package failure_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	. "github.com/smartystreets/goconvey/convey"
)

func TestError(t *testing.T) {
	Convey("Given a stage failure with a cause", t, func() {
		err := failure.WrapKind("source.observations", failure.ErrExternalIO, io.ErrUnexpectedEOF).WithRow(12)

		Convey("Then the kind and the cause are both matchable", func() {
			So(errors.Is(err, failure.ErrExternalIO), ShouldBeTrue)
			So(errors.Is(err, io.ErrUnexpectedEOF), ShouldBeTrue)
			So(errors.Is(err, failure.ErrInvalidData), ShouldBeFalse)
		})

		Convey("Then the message names the stage and row", func() {
			So(err.Error(), ShouldEqual, "source.observations row 12: external io failure: unexpected EOF")
		})

		Convey("Then it survives further wrapping", func() {
			wrapped := fmt.Errorf("run: %w", err)
			var fe *failure.Error
			So(errors.As(wrapped, &fe), ShouldBeTrue)
			So(fe.Row, ShouldEqual, 12)
			So(failure.KindOf(wrapped), ShouldEqual, "external_io")
		})
	})

	Convey("Given a group failure without a cause", t, func() {
		err := failure.NewKind("enrich.events", failure.ErrJoinMismatch).WithGroup("event=E7")

		Convey("Then the message names the group", func() {
			So(err.Error(), ShouldEqual, "enrich.events [event=E7]: join mismatch")
			So(failure.KindOf(err), ShouldEqual, "join_mismatch")
		})
	})

	Convey("Given Wrap", t, func() {
		Convey("When the cause is nil", func() {
			So(failure.Wrap("x", nil), ShouldBeNil)
		})

		Convey("When the cause is set", func() {
			err := failure.Wrap("sink.csv", io.ErrClosedPipe)
			So(err.Error(), ShouldEqual, "sink.csv: io: read/write on closed pipe")
			So(failure.KindOf(err), ShouldEqual, "internal")
		})
	})

	Convey("Given KindOf on every kind", t, func() {
		So(failure.KindOf(nil), ShouldEqual, "")
		So(failure.KindOf(failure.NewKind("a", failure.ErrConfiguration)), ShouldEqual, "configuration")
		So(failure.KindOf(failure.NewKind("a", failure.ErrInvalidData)), ShouldEqual, "invalid_data")
	})
}
