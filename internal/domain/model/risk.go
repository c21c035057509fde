package model

import (
	"fmt"
	"strings"
)

// RiskLevel is the discrete outcome of an assessment.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Levels lists every risk level from least to most severe.
var Levels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// ParseRiskLevel converts a stored level string back into a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// ModelOutput holds the three class probabilities read from the oracle.
// Class 0 is the highest severity, class 1 moderate, class 2 none/low.
// A nil pointer means the oracle did not produce that probability.
type ModelOutput struct {
	High     *float64 // probability(0)
	Moderate *float64 // probability(1)
	None     *float64 // probability(2)
}

// Classification is the resolved level and the probability that won.
type Classification struct {
	Level      RiskLevel
	Confidence float64
}

// Probabilities are class probabilities in the result's own vocabulary.
type Probabilities struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// AssessmentResult is the immutable outcome of one risk assessment.
type AssessmentResult struct {
	Level         RiskLevel     `json:"risk_level"`
	Confidence    float64       `json:"confidence"`
	Probabilities Probabilities `json:"probabilities"`
	Features      FeatureVector `json:"features"`
}
