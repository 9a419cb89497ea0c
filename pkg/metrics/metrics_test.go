package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test_prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered on the given registry", func() {
				So(manager, ShouldNotBeNil)
				manager.submissions.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_prefix_submissions_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRefreshInterval(t *testing.T) {
	Convey("Given a manager with a refresh interval", t, func() {
		manager := NewManager(
			WithRefreshInterval(5*time.Second),
			WithPrometheusRegistry(prometheus.NewRegistry()),
		)

		Convey("Then the interval is exposed", func() {
			So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
		})
	})

	Convey("Given a non-positive refresh interval", t, func() {
		manager := NewManager(
			WithRefreshInterval(0),
			WithPrometheusRegistry(prometheus.NewRegistry()),
		)

		Convey("Then the default is kept", func() {
			So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})

	Convey("Given the global manager", t, func() {
		So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording a plan", func() {
			before := testutil.ToFloat64(globalManager.planEntries.WithLabelValues("create"))
			RecordPlan(2, 3)

			Convey("Then creates and updates are counted separately", func() {
				So(testutil.ToFloat64(globalManager.planEntries.WithLabelValues("create")), ShouldEqual, before+2)
			})
		})

		Convey("When recording a submission failure", func() {
			before := testutil.ToFloat64(globalManager.submissionFailures.WithLabelValues("lookup"))
			RecordSubmissionFailure("lookup")

			Convey("Then the kind counter grows", func() {
				So(testutil.ToFloat64(globalManager.submissionFailures.WithLabelValues("lookup")), ShouldEqual, before+1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateEvaluatedEmployees(7)
			UpdateUnevaluatedEmployees(3)
			UpdateActiveCriteria(13)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.evaluatedEmployees), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.unevaluatedEmployees), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.activeCriteria), ShouldEqual, 13)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordSubmission()
					RecordStoreLatency("upsert_batch", 3.5)
					RecordStoreError("fetch_existing")
					UpdateBreakerState("scores", 2)
					RecordHTTPRequest("evaluations", "PUT", "200")
					RecordHTTPRequestDuration("evaluations", "PUT", "200", 12)
					RecordErrorByType("server_error", "high")
					RecordErrorByEndpoint("evaluations", "PUT", "server_error")
					RecordErrorLatency("http", "server_error", 4)
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(10)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
