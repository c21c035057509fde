// Package oracle defines the contract of the trained risk classifier and the
// adapter that feeds it feature vectors.
//
// Class convention: probability(0) is the highest severity, probability(1)
// moderate and probability(2) none/low. A retrained or swapped model must
// keep this encoding.
package oracle

import "github.com/okian/heatguard/internal/domain/model"

// Declared input field names. Matching against the oracle is exact.
const (
	InputAge                = "Age"
	InputSex                = "Sex"
	InputWeight             = "Weight (kg)"
	InputBMI                = "BMI"
	InputDehydration        = "Dehydration"
	InputHeatIndex          = "Heat Index (HI)"
	InputTemperature        = "Environmental temperature (C)"
	InputHumidity           = "Relative Humidity"
	InputPulse              = "Heart / Pulse rate (b/min)"
	InputPatientTemperature = "Patient temperature"
	InputSweating           = "Sweating"
	InputHotDrySkin         = "Hot/dry skin"
)

// Output field names for the three class probabilities.
const (
	OutputHigh     = "probability(0)"
	OutputModerate = "probability(1)"
	OutputNone     = "probability(2)"
)

// InputFields lists the feature contract in its canonical order.
var InputFields = []string{
	InputAge,
	InputSex,
	InputWeight,
	InputBMI,
	InputDehydration,
	InputHeatIndex,
	InputTemperature,
	InputHumidity,
	InputPulse,
	InputPatientTemperature,
	InputSweating,
	InputHotDrySkin,
}

// OutputFields lists the probability outputs read from the oracle.
var OutputFields = []string{OutputHigh, OutputModerate, OutputNone}

// Oracle is a loaded classifier. Implementations must be safe for
// concurrent Evaluate calls once constructed.
type Oracle interface {
	// Name identifies the loaded model, e.g. "heatstroke-logit@1.2".
	Name() string
	// Ready reports whether the model is loaded and verified.
	Ready() bool
	// InputFields returns the declared input names.
	InputFields() []string
	// OutputFields returns the declared output names.
	OutputFields() []string
	// Evaluate computes outputs for the named arguments.
	Evaluate(args map[string]float64) (map[string]float64, error)
}

// Values returns the feature vector keyed by declared input name.
func Values(fv model.FeatureVector) map[string]float64 {
	return map[string]float64{
		InputAge:                fv.Age,
		InputSex:                fv.Sex,
		InputWeight:             fv.Weight,
		InputBMI:                fv.BMI,
		InputDehydration:        fv.DehydrationLevel,
		InputHeatIndex:          fv.HeatIndex,
		InputTemperature:        fv.Temperature,
		InputHumidity:           fv.Humidity,
		InputPulse:              fv.Pulse,
		InputPatientTemperature: fv.PatientTemperature,
		InputSweating:           fv.Sweating,
		InputHotDrySkin:         fv.HotDrySkin,
	}
}
