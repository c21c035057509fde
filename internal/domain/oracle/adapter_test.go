package oracle_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/oracle"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeOracle struct {
	ready   bool
	inputs  []string
	outputs []string
	result  map[string]float64
	err     error

	mu   sync.Mutex
	seen map[string]float64
}

func (f *fakeOracle) Name() string           { return "fake@1" }
func (f *fakeOracle) Ready() bool            { return f.ready }
func (f *fakeOracle) InputFields() []string  { return f.inputs }
func (f *fakeOracle) OutputFields() []string { return f.outputs }

func (f *fakeOracle) Evaluate(args map[string]float64) (map[string]float64, error) {
	f.mu.Lock()
	f.seen = args
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newFake() *fakeOracle {
	return &fakeOracle{
		ready:   true,
		inputs:  append([]string(nil), oracle.InputFields...),
		outputs: append([]string(nil), oracle.OutputFields...),
		result: map[string]float64{
			oracle.OutputHigh:     0.6,
			oracle.OutputModerate: 0.3,
			oracle.OutputNone:     0.1,
		},
	}
}

var sample = model.FeatureVector{
	Age: 30, Sex: 1, Weight: 70, BMI: 25, DehydrationLevel: 0.5, HeatIndex: 38.2,
	Temperature: 38.2, Humidity: 0.65, Pulse: 92, PatientTemperature: 39.52,
	Sweating: 0.7, HotDrySkin: 0,
}

func TestNewAdapter(t *testing.T) {
	Convey("Given oracles with different schemas", t, func() {
		Convey("When the oracle is nil", func() {
			_, err := oracle.NewAdapter(nil)
			So(errors.Is(err, oracle.ErrNilOracle), ShouldBeTrue)
		})

		Convey("When the oracle is not ready", func() {
			o := newFake()
			o.ready = false
			_, err := oracle.NewAdapter(o)
			So(errors.Is(err, oracle.ErrNotReady), ShouldBeTrue)
		})

		Convey("When the oracle declares inputs outside the contract", func() {
			o := newFake()
			o.inputs = append(o.inputs, "age", "Altitude")
			a, err := oracle.NewAdapter(o)

			Convey("Then the adapter is built and lists them as extra", func() {
				So(err, ShouldBeNil)
				So(a.Extra(), ShouldResemble, []string{"Altitude", "age"})
				So(a.Dropped(), ShouldBeEmpty)
			})

			Convey("And invocation leaves them unset for the oracle to default", func() {
				_, err := a.Invoke(sample)
				So(err, ShouldBeNil)
				So(o.seen, ShouldHaveLength, 12)
				So(o.seen, ShouldNotContainKey, "Altitude")
				So(o.seen, ShouldNotContainKey, "age")
			})
		})

		Convey("When the oracle declares no probability output", func() {
			o := newFake()
			o.outputs = []string{"predicted"}
			_, err := oracle.NewAdapter(o)
			So(errors.Is(err, oracle.ErrSchemaDrift), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "probability(0)")
		})

		Convey("When the oracle declares a subset of inputs and outputs", func() {
			o := newFake()
			o.inputs = []string{oracle.InputAge, oracle.InputPulse}
			o.outputs = []string{oracle.OutputHigh, oracle.OutputNone}
			a, err := oracle.NewAdapter(o)

			Convey("Then the adapter is built and records the dropped features", func() {
				So(err, ShouldBeNil)
				So(a.Dropped(), ShouldHaveLength, 10)
				So(a.Dropped(), ShouldNotContain, oracle.InputAge)
				So(a.ModelName(), ShouldEqual, "fake@1")
			})
		})
	})
}

func TestAdapter_Invoke(t *testing.T) {
	Convey("Given an adapter over a full-schema oracle", t, func() {
		o := newFake()
		a, err := oracle.NewAdapter(o)
		So(err, ShouldBeNil)

		Convey("When invoking with a feature vector", func() {
			out, err := a.Invoke(sample)

			Convey("Then every feature is sent under its exact declared name", func() {
				So(err, ShouldBeNil)
				So(o.seen, ShouldHaveLength, 12)
				So(o.seen["Weight (kg)"], ShouldEqual, 70.0)
				So(o.seen["Heart / Pulse rate (b/min)"], ShouldEqual, 92.0)
				So(o.seen["Relative Humidity"], ShouldEqual, 0.65)
				So(o.seen["Hot/dry skin"], ShouldEqual, 0.0)
				So(o.seen["Environmental temperature (C)"], ShouldEqual, 38.2)
			})

			Convey("And the probabilities map to classes 0, 1, 2", func() {
				So(*out.High, ShouldEqual, 0.6)
				So(*out.Moderate, ShouldEqual, 0.3)
				So(*out.None, ShouldEqual, 0.1)
			})
		})

		Convey("When invoking with timing", func() {
			out, elapsed, err := a.InvokeTimed(sample)

			Convey("Then the evaluation duration is reported", func() {
				So(err, ShouldBeNil)
				So(*out.High, ShouldEqual, 0.6)
				So(elapsed >= 0, ShouldBeTrue)
			})
		})

		Convey("When the oracle omits a probability", func() {
			o.result = map[string]float64{oracle.OutputHigh: 0.2}
			out, err := a.Invoke(sample)

			Convey("Then the missing ones are nil, not an error", func() {
				So(err, ShouldBeNil)
				So(*out.High, ShouldEqual, 0.2)
				So(out.Moderate, ShouldBeNil)
				So(out.None, ShouldBeNil)
			})
		})

		Convey("When evaluation fails", func() {
			boom := errors.New("missing value for Age")
			o.err = boom
			_, err := a.Invoke(sample)

			Convey("Then a ModelInvocationError wraps the cause", func() {
				var invErr *oracle.ModelInvocationError
				So(errors.As(err, &invErr), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})

		Convey("When the oracle stops being ready", func() {
			o.ready = false
			_, err := a.Invoke(sample)

			Convey("Then a ModelInvocationError wrapping ErrNotReady is returned", func() {
				var invErr *oracle.ModelInvocationError
				So(errors.As(err, &invErr), ShouldBeTrue)
				So(errors.Is(err, oracle.ErrNotReady), ShouldBeTrue)
			})
		})
	})

	Convey("Given an oracle that declares only some inputs", t, func() {
		o := newFake()
		o.inputs = []string{oracle.InputAge, oracle.InputSex}
		a, err := oracle.NewAdapter(o)
		So(err, ShouldBeNil)

		_, err = a.Invoke(sample)

		Convey("Then undeclared features are silently dropped", func() {
			So(err, ShouldBeNil)
			So(o.seen, ShouldResemble, map[string]float64{"Age": 30, "Sex": 1})
		})
	})
}
