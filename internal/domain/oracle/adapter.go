package oracle

import (
	"slices"
	"sort"
	"time"

	"github.com/okian/heatguard/internal/domain/model"
)

// Adapter invokes an Oracle with the fixed feature contract. The set of
// inputs to send is resolved once, when the adapter is built.
type Adapter struct {
	oracle  Oracle
	inputs  []string // oracle-declared inputs we can populate
	dropped []string // features the oracle does not declare
	extra   []string // oracle-declared inputs we never populate
}

// NewAdapter verifies the oracle schema and returns an adapter bound to it.
// Declared inputs outside the feature contract are left unset so the oracle
// applies its own missing-value handling.
func NewAdapter(o Oracle) (*Adapter, error) {
	if o == nil {
		return nil, ErrNilOracle
	}
	if !o.Ready() {
		return nil, ErrNotReady
	}
	if err := Verify(o); err != nil {
		return nil, err
	}

	declared := o.InputFields()
	a := &Adapter{oracle: o}
	for _, name := range InputFields {
		if slices.Contains(declared, name) {
			a.inputs = append(a.inputs, name)
		} else {
			a.dropped = append(a.dropped, name)
		}
	}
	for _, name := range declared {
		if !slices.Contains(InputFields, name) {
			a.extra = append(a.extra, name)
		}
	}
	sort.Strings(a.extra)
	return a, nil
}

// Verify checks the oracle's declared outputs. Individual probability
// outputs may be absent (they classify as 0.0) but not all three.
func Verify(o Oracle) error {
	declaredOut := o.OutputFields()
	var schemaErr SchemaError
	for _, name := range OutputFields {
		if !slices.Contains(declaredOut, name) {
			schemaErr.MissingOutputs = append(schemaErr.MissingOutputs, name)
		}
	}
	if len(schemaErr.MissingOutputs) < len(OutputFields) {
		return nil
	}
	return &schemaErr
}

// Invoke evaluates the oracle for fv. Any failure is returned as a
// *ModelInvocationError; there is no retry.
func (a *Adapter) Invoke(fv model.FeatureVector) (model.ModelOutput, error) {
	out, _, err := a.InvokeTimed(fv)
	return out, err
}

// InvokeTimed is Invoke that also reports how long the oracle evaluation
// itself took.
func (a *Adapter) InvokeTimed(fv model.FeatureVector) (model.ModelOutput, time.Duration, error) {
	if !a.oracle.Ready() {
		return model.ModelOutput{}, 0, &ModelInvocationError{Err: ErrNotReady}
	}

	values := Values(fv)
	args := make(map[string]float64, len(a.inputs))
	for _, name := range a.inputs {
		args[name] = values[name]
	}

	start := time.Now()
	out, err := a.oracle.Evaluate(args)
	elapsed := time.Since(start)
	if err != nil {
		return model.ModelOutput{}, elapsed, &ModelInvocationError{Err: err}
	}

	return model.ModelOutput{
		High:     lookup(out, OutputHigh),
		Moderate: lookup(out, OutputModerate),
		None:     lookup(out, OutputNone),
	}, elapsed, nil
}

// ModelName returns the name of the bound oracle.
func (a *Adapter) ModelName() string { return a.oracle.Name() }

// Dropped returns the features the oracle does not consume.
func (a *Adapter) Dropped() []string { return slices.Clone(a.dropped) }

// Extra returns oracle-declared inputs that are never sent.
func (a *Adapter) Extra() []string { return slices.Clone(a.extra) }

func lookup(out map[string]float64, key string) *float64 {
	v, ok := out[key]
	if !ok {
		return nil
	}
	return &v
}
