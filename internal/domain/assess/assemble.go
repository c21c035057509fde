// Package assess composes normalization, model invocation and
// classification into a single risk assessment.
package assess

import "github.com/okian/heatguard/internal/domain/model"

// Assemble builds the immutable result. Probabilities are relabeled with
// the same class ordering the classifier uses: class 0 → HIGH,
// class 1 → MEDIUM, class 2 → LOW. Absent probabilities become 0.0.
func Assemble(fv model.FeatureVector, out model.ModelOutput, c model.Classification) model.AssessmentResult {
	return model.AssessmentResult{
		Level:      c.Level,
		Confidence: c.Confidence,
		Probabilities: model.Probabilities{
			High:   deref(out.High),
			Medium: deref(out.Moderate),
			Low:    deref(out.None),
		},
		Features: fv,
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
