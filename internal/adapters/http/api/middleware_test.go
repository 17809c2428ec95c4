package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

func TestErrorKind(t *testing.T) {
	Convey("Given the statuses the API answers with", t, func() {
		So(errorKind(http.StatusOK), ShouldEqual, "")
		So(errorKind(http.StatusAccepted), ShouldEqual, "")
		So(errorKind(http.StatusBadRequest), ShouldEqual, "client_error")
		So(errorKind(http.StatusNotFound), ShouldEqual, "not_found")
		So(errorKind(http.StatusUnprocessableEntity), ShouldEqual, "run_rejected")
		So(errorKind(http.StatusTooManyRequests), ShouldEqual, "backpressure")
		So(errorKind(http.StatusBadGateway), ShouldEqual, "upstream")
		So(errorKind(http.StatusServiceUnavailable), ShouldEqual, "server_error")
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped by the middleware", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}, "teapot")

		Convey("Then the status written by the handler is passed on", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))
			So(w.Code, ShouldEqual, http.StatusTeapot)

			n, err := testutil.GatherAndCount(metrics.GetRegistry(), "vegcover_pipeline_http_requests_total")
			So(err, ShouldBeNil)
			So(n, ShouldBeGreaterThan, 0)
		})
	})
}
