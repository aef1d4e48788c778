package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with options", func() {
			m := NewManager(
				WithPrometheusRegistry(registry),
				WithNamespace("test"),
				WithSubsystem("scoring"),
				WithLatencyBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
			)

			Convey("Then its collectors are registered", func() {
				So(m, ShouldNotBeNil)
				So(m.namespace, ShouldEqual, "test")
				m.stationScores.WithLabelValues("agility", "table").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "test_scoring_")
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithPrometheusRegistry(registry), WithNamespace(""), WithLatencyBuckets(nil))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "kickscore")
				So(m.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording measurements", func() {
			before := testutil.ToFloat64(globalManager.measurementsRecorded)
			RecordMeasurement()
			RecordMeasurement()

			Convey("Then the counter advances", func() {
				So(testutil.ToFloat64(globalManager.measurementsRecorded), ShouldEqual, before+2)
			})
		})

		Convey("When recording scores by kind and method", func() {
			c := globalManager.stationScores.WithLabelValues("speed", "formula")
			before := testutil.ToFloat64(c)
			RecordStationScore("speed", "formula")

			Convey("Then only that series changes", func() {
				So(testutil.ToFloat64(c), ShouldEqual, before+1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateLiveClients(3)
			UpdateRefreshQueueSize(7)
			UpdateWorkerCount(4)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.liveClients), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.refreshQueueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordScoreMapLoad("s1", "absent")
				RecordPerformanceBuild(12, 3.5)
				RecordPerformanceBuild(0, 0)
				RecordMeasurementDuplicate()
				RecordRefreshJob("ok", 12)
				RecordLiveMessage("sent")
				RecordHTTPRequest("/projects/{projectID}/performances", "GET", "200", 4)
				RecordErrorByComponent("repository", "query")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry exposes them", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
