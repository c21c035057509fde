package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.assessments.WithLabelValues("HIGH").Inc()

			Convey("Then collectors carry the namespace and constant labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_risk_assessments_total" {
						found = true
						labels := f.GetMetric()[0].GetLabel()
						var names []string
						for _, l := range labels {
							names = append(names, l.GetName()+"="+l.GetValue())
						}
						So(strings.Join(names, ","), ShouldContainSubstring, "env=test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When registering the same names twice", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording assessment outcomes", func() {
			before := testutil.ToFloat64(globalManager.assessments.WithLabelValues("HIGH"))
			RecordAssessment("HIGH")
			RecordImputed([]string{"age", "bmi"})
			RecordInputError("pulse")
			RecordIdempotentReplay()

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.assessments.WithLabelValues("HIGH")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.imputedFeatures.WithLabelValues("bmi")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.inputErrors.WithLabelValues("pulse")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.idempotentReplays), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording store operations", func() {
			before := testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("save"))
			RecordStoreOperation("save", 1.5, nil)
			RecordStoreOperation("save", 2.5, errors.New("disk full"))

			Convey("Then only the failure is counted as an error", func() {
				So(testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("save")), ShouldEqual, before+1)
			})
		})

		Convey("When recording the remaining collectors", func() {
			So(func() {
				RecordOracleLatency(0.2)
				RecordOracleError()
				RecordProfileCacheLookup(true)
				RecordProfileCacheLookup(false)
				RecordHTTPRequest("/api/assess", "POST", "200")
				RecordHTTPRequestDuration("/api/assess", "POST", "200", 3)
				RecordErrorByEndpoint("/api/assess", "POST", "4xx")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then the registry gathers without error", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given configured namespace and labels", t, func() {
		previous := GetRegistry()
		Init(WithNamespace("clinic"), WithConstLabels(map[string]string{"site": "north"}))
		Reset(func() { Init() })

		RecordAssessment("LOW")

		Convey("Then the served registry carries them", func() {
			So(GetRegistry(), ShouldNotEqual, previous)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			var found bool
			for _, f := range families {
				if f.GetName() != "clinic_risk_assessments_total" {
					continue
				}
				found = true
				var labels []string
				for _, l := range f.GetMetric()[0].GetLabel() {
					labels = append(labels, l.GetName()+"="+l.GetValue())
				}
				So(labels, ShouldContain, "site=north")
				So(labels, ShouldContain, "level=LOW")
			}
			So(found, ShouldBeTrue)
		})
	})
}
