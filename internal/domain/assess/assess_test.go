package assess_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/heatguard/internal/domain/assess"
	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/normalize"
	"github.com/okian/heatguard/internal/domain/oracle"
	. "github.com/smartystreets/goconvey/convey"
)

type stubInvoker struct {
	out   model.ModelOutput
	err   error
	calls int
	last  model.FeatureVector
	mu    sync.Mutex
}

func (s *stubInvoker) Invoke(fv model.FeatureVector) (model.ModelOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = fv
	return s.out, s.err
}

func TestAssemble(t *testing.T) {
	Convey("Given a feature vector, model output and classification", t, func() {
		fv := model.FeatureVector{Age: 40, Temperature: 36, Humidity: 0.5, Pulse: 100}
		out := model.ModelOutput{High: model.Float(0.2), Moderate: model.Float(0.5), None: model.Float(0.3)}
		c := model.Classification{Level: model.RiskMedium, Confidence: 0.5}

		Convey("When assembling", func() {
			res := assess.Assemble(fv, out, c)

			Convey("Then probabilities are relabeled by class order", func() {
				So(res.Level, ShouldEqual, model.RiskMedium)
				So(res.Confidence, ShouldEqual, 0.5)
				So(res.Probabilities, ShouldResemble, model.Probabilities{High: 0.2, Medium: 0.5, Low: 0.3})
				So(res.Features, ShouldResemble, fv)
			})

			Convey("And repeated calls produce identical results", func() {
				for i := 0; i < 5; i++ {
					So(assess.Assemble(fv, out, c), ShouldResemble, res)
				}
			})
		})

		Convey("When some probabilities are absent", func() {
			res := assess.Assemble(fv, model.ModelOutput{High: model.Float(0.9)}, model.Classification{Level: model.RiskHigh, Confidence: 0.9})
			So(res.Probabilities, ShouldResemble, model.Probabilities{High: 0.9})
		})
	})
}

func TestEngine_AssessRisk(t *testing.T) {
	Convey("Given an engine over a stub model", t, func() {
		inv := &stubInvoker{out: model.ModelOutput{High: model.Float(0.3), Moderate: model.Float(0.3), None: model.Float(0.4)}}
		engine := assess.NewEngine(inv)

		obs := model.Observation{
			Temperature: model.Float(38.2),
			Humidity:    model.Float(65),
			Pulse:       model.Float(92),
		}

		Convey("When assessing a partial observation", func() {
			res, trace, err := engine.AssessRiskTrace(obs, nil)

			Convey("Then the normalized vector reaches the model", func() {
				So(err, ShouldBeNil)
				So(inv.calls, ShouldEqual, 1)
				So(inv.last.Humidity, ShouldAlmostEqual, 0.65, 1e-9)
				So(inv.last.PatientTemperature, ShouldAlmostEqual, 39.52, 1e-9)
			})

			Convey("And the result carries the classification", func() {
				So(res.Level, ShouldEqual, model.RiskLow)
				So(res.Confidence, ShouldEqual, 0.4)
				So(res.Probabilities.Low, ShouldEqual, 0.4)
				So(trace.Imputed, ShouldContain, normalize.ImputedAge)
			})
		})

		Convey("When a required field is missing", func() {
			obs.Pulse = nil
			_, err := engine.AssessRisk(obs, nil)

			Convey("Then the model is never invoked", func() {
				var missing *normalize.MissingRequiredFieldError
				So(errors.As(err, &missing), ShouldBeTrue)
				So(missing.Field, ShouldEqual, "pulse")
				So(inv.calls, ShouldEqual, 0)
			})
		})

		Convey("When the model fails", func() {
			inv.err = &oracle.ModelInvocationError{Err: oracle.ErrNotReady}
			res, err := engine.AssessRisk(obs, nil)

			Convey("Then no partial result is returned", func() {
				var invErr *oracle.ModelInvocationError
				So(errors.As(err, &invErr), ShouldBeTrue)
				So(res, ShouldResemble, model.AssessmentResult{})
			})
		})

		Convey("When assessing concurrently", func() {
			var wg sync.WaitGroup
			results := make([]model.AssessmentResult, 16)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], _ = engine.AssessRisk(obs, nil)
				}(i)
			}
			wg.Wait()

			Convey("Then every call yields the same result", func() {
				for _, r := range results {
					So(r, ShouldResemble, results[0])
				}
			})
		})
	})
}

// timedStub reports a fixed evaluation time.
type timedStub struct {
	stubInvoker
	latency time.Duration
}

func (s *timedStub) InvokeTimed(fv model.FeatureVector) (model.ModelOutput, time.Duration, error) {
	out, err := s.Invoke(fv)
	return out, s.latency, err
}

func TestEngine_OracleLatency(t *testing.T) {
	Convey("Given observations with the required readings", t, func() {
		obs := model.Observation{
			Temperature: model.Float(30),
			Humidity:    model.Float(0.5),
			Pulse:       model.Float(80),
		}
		out := model.ModelOutput{High: model.Float(0.1), Moderate: model.Float(0.2), None: model.Float(0.7)}

		Convey("When the invoker reports evaluation time", func() {
			inv := &timedStub{stubInvoker: stubInvoker{out: out}, latency: 3 * time.Millisecond}
			_, trace, err := assess.NewEngine(inv).AssessRiskTrace(obs, nil)

			Convey("Then the trace carries only the oracle time", func() {
				So(err, ShouldBeNil)
				So(trace.OracleLatency, ShouldEqual, 3*time.Millisecond)
				So(inv.calls, ShouldEqual, 1)
			})
		})

		Convey("When the timed invoker fails", func() {
			inv := &timedStub{stubInvoker: stubInvoker{err: &oracle.ModelInvocationError{Err: oracle.ErrNotReady}}, latency: time.Millisecond}
			_, trace, err := assess.NewEngine(inv).AssessRiskTrace(obs, nil)

			Convey("Then the latency is still reported", func() {
				So(err, ShouldNotBeNil)
				So(trace.OracleLatency, ShouldEqual, time.Millisecond)
			})
		})

		Convey("When the invoker does not report time", func() {
			_, trace, err := assess.NewEngine(&stubInvoker{out: out}).AssessRiskTrace(obs, nil)
			So(err, ShouldBeNil)
			So(trace.OracleLatency, ShouldEqual, time.Duration(0))
		})
	})
}
