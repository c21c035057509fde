package assess

import (
	"time"

	"github.com/okian/heatguard/internal/domain/classify"
	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/normalize"
)

// Invoker obtains class probabilities for a feature vector.
// *oracle.Adapter satisfies it.
type Invoker interface {
	Invoke(fv model.FeatureVector) (model.ModelOutput, error)
}

// timedInvoker also reports the oracle evaluation time.
type timedInvoker interface {
	InvokeTimed(fv model.FeatureVector) (model.ModelOutput, time.Duration, error)
}

// Trace describes how a result was produced. It is diagnostic only.
type Trace struct {
	Imputed []string
	Output  model.ModelOutput
	// OracleLatency is the model evaluation time, zero when the invoker
	// does not report it.
	OracleLatency time.Duration
}

// Engine runs the full assessment pipeline. It holds no mutable state and
// is safe for concurrent use when its Invoker is.
type Engine struct {
	invoker Invoker
}

// NewEngine returns an engine that evaluates through invoker.
func NewEngine(invoker Invoker) *Engine {
	return &Engine{invoker: invoker}
}

// AssessRisk normalizes the observation, invokes the model, classifies the
// probabilities and assembles the result. Errors are either
// *normalize.MissingRequiredFieldError or *oracle.ModelInvocationError.
func (e *Engine) AssessRisk(obs model.Observation, profile *model.PatientProfile) (model.AssessmentResult, error) {
	res, _, err := e.AssessRiskTrace(obs, profile)
	return res, err
}

// AssessRiskTrace is AssessRisk that also returns the diagnostic trace.
func (e *Engine) AssessRiskTrace(obs model.Observation, profile *model.PatientProfile) (model.AssessmentResult, Trace, error) {
	fv, imputed, err := normalize.Trace(obs, profile)
	if err != nil {
		return model.AssessmentResult{}, Trace{}, err
	}

	trace := Trace{Imputed: imputed}
	var out model.ModelOutput
	if ti, ok := e.invoker.(timedInvoker); ok {
		out, trace.OracleLatency, err = ti.InvokeTimed(fv)
	} else {
		out, err = e.invoker.Invoke(fv)
	}
	if err != nil {
		return model.AssessmentResult{}, trace, err
	}
	trace.Output = out

	return Assemble(fv, out, classify.Classify(out)), trace, nil
}
