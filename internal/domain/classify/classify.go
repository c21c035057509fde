// Package classify resolves class probabilities into a discrete risk level.
package classify

import "github.com/okian/heatguard/internal/domain/model"

// Classify returns the winning risk level and its probability. Absent
// probabilities compare as 0.0. Ties resolve toward the more severe class:
// HIGH beats MEDIUM beats LOW.
func Classify(out model.ModelOutput) model.Classification {
	high := valueOr0(out.High)
	moderate := valueOr0(out.Moderate)
	none := valueOr0(out.None)

	switch {
	case out.High != nil && high >= moderate && high >= none:
		return model.Classification{Level: model.RiskHigh, Confidence: high}
	case out.Moderate != nil && moderate >= none:
		return model.Classification{Level: model.RiskMedium, Confidence: moderate}
	default:
		return model.Classification{Level: model.RiskLow, Confidence: none}
	}
}

func valueOr0(p *float64) float64 {
	if p == nil {
		return 0.0
	}
	return *p
}
