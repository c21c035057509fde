// Package model contains domain models passed between layers.
package model

import "strings"

// Gender of a patient as recorded on the profile.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// ParseGender accepts the common spellings ("m", "male", "F", "female").
// Anything else yields the empty Gender, which normalizes like female.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	default:
		return ""
	}
}

// Observation is a partial set of environmental and physiological readings.
// Nil pointers mark absent fields.
type Observation struct {
	Temperature        *float64 // environmental temperature, °C (required)
	Humidity           *float64 // fraction [0,1] or percentage (1,100] (required)
	Pulse              *float64 // beats/min (required)
	DehydrationLevel   *float64 // fraction [0,1]
	HeatIndex          *float64 // °C
	PatientTemperature *float64 // core temperature, °C
	Sweating           *float64 // fraction [0,1]
	HotDrySkin         *float64 // fraction [0,1]
	Age                *float64 // years
}

// PatientProfile carries the per-patient attributes the model needs.
type PatientProfile struct {
	Gender Gender
	Weight *float64 // kg
	BMI    *float64
}

// Float returns a pointer to v. Handy for building observations.
func Float(v float64) *float64 { return &v }
