// Package normalize turns partial observations into a complete feature vector.
//
// Missing optional readings are imputed from a clinical prior linking
// dehydration, ambient heat and thermoregulatory failure, so the model can
// run on partial wearable telemetry.
package normalize

import (
	"math"

	"github.com/okian/heatguard/internal/domain/model"
)

// Defaults applied when a reading or profile attribute is absent.
const (
	DefaultAge         = 30.0
	DefaultWeight      = 70.0
	DefaultBMI         = 25.0
	DefaultDehydration = 0.5

	coreBaselineTemp = 25.0
	coreRiseFactor   = 0.1
	coreRiseMin      = 0.5
	coreRiseMax      = 2.0
)

// Names of imputed features, as reported by Trace.
const (
	ImputedAge                = "age"
	ImputedSex                = "sex"
	ImputedWeight             = "weight"
	ImputedBMI                = "bmi"
	ImputedDehydration        = "dehydration_level"
	ImputedHeatIndex          = "heat_index"
	ImputedPatientTemperature = "patient_temperature"
	ImputedSweating           = "sweating"
	ImputedHotDrySkin         = "hot_dry_skin"
)

// Normalize maps an observation and an optional profile onto a fully
// populated feature vector. It fails only when temperature, humidity or
// pulse is absent.
func Normalize(obs model.Observation, profile *model.PatientProfile) (model.FeatureVector, error) {
	fv, _, err := Trace(obs, profile)
	return fv, err
}

// Trace is Normalize that also reports which features were imputed.
func Trace(obs model.Observation, profile *model.PatientProfile) (model.FeatureVector, []string, error) {
	switch {
	case obs.Temperature == nil:
		return model.FeatureVector{}, nil, &MissingRequiredFieldError{Field: FieldTemperature}
	case obs.Humidity == nil:
		return model.FeatureVector{}, nil, &MissingRequiredFieldError{Field: FieldHumidity}
	case obs.Pulse == nil:
		return model.FeatureVector{}, nil, &MissingRequiredFieldError{Field: FieldPulse}
	}

	var imputed []string
	pick := func(v *float64, def float64, name string) float64 {
		if v != nil {
			return *v
		}
		imputed = append(imputed, name)
		return def
	}

	temp := *obs.Temperature
	fv := model.FeatureVector{
		Age:         pick(obs.Age, DefaultAge, ImputedAge),
		Temperature: temp,
		Humidity:    Humidity(*obs.Humidity),
		Pulse:       *obs.Pulse,
	}

	var p model.PatientProfile
	if profile != nil {
		p = *profile
	} else {
		imputed = append(imputed, ImputedSex)
	}
	if p.Gender == model.GenderMale {
		fv.Sex = 1.0
	}
	fv.Weight = pick(p.Weight, DefaultWeight, ImputedWeight)
	fv.BMI = pick(p.BMI, DefaultBMI, ImputedBMI)

	fv.DehydrationLevel = pick(obs.DehydrationLevel, DefaultDehydration, ImputedDehydration)
	fv.HeatIndex = pick(obs.HeatIndex, temp, ImputedHeatIndex)
	fv.PatientTemperature = pick(obs.PatientTemperature, CoreTemperature(temp), ImputedPatientTemperature)
	fv.Sweating = pick(obs.Sweating, Sweating(fv.DehydrationLevel, temp), ImputedSweating)
	fv.HotDrySkin = pick(obs.HotDrySkin, HotDrySkin(fv.DehydrationLevel, temp), ImputedHotDrySkin)

	return fv, imputed, nil
}

// Humidity accepts a fraction or a percentage and returns a fraction in [0,1].
func Humidity(raw float64) float64 {
	h := raw
	if h > 1.0 {
		h /= 100.0
	}
	return clamp(h, 0.0, 1.0)
}

// CoreTemperature estimates patient core temperature from ambient: it runs
// 0.5–2.0 °C above ambient, rising 0.1 °C per degree above 25 °C.
func CoreTemperature(ambient float64) float64 {
	return ambient + clamp((ambient-coreBaselineTemp)*coreRiseFactor, coreRiseMin, coreRiseMax)
}

// Sweating estimates the sweating response. Severe dehydration suppresses it.
func Sweating(dehydration, ambient float64) float64 {
	switch {
	case dehydration > 0.8:
		return 0.0
	case dehydration > 0.5:
		return 0.3
	case ambient > 35.0:
		return 1.0
	default:
		return 0.7
	}
}

// HotDrySkin estimates the hot/dry skin indicator.
func HotDrySkin(dehydration, ambient float64) float64 {
	switch {
	case dehydration > 0.7 && ambient > 32.0:
		return 1.0
	case dehydration > 0.5 && ambient > 35.0:
		return 0.5
	default:
		return 0.0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
