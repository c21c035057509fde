package model

import "time"

// Assessment is a persisted risk assessment for a patient.
type Assessment struct {
	ID        string
	PatientID string

	// Inputs as submitted by the caller.
	Temperature      float64
	Humidity         float64
	Pulse            float64
	DehydrationLevel *float64
	HeatIndex        *float64

	Result       AssessmentResult
	ModelVersion string
	AssessedAt   time.Time
	Notes        string
}

// Patient is a stored patient profile.
type Patient struct {
	ID       string
	Name     string
	Gender   Gender
	HeightCM *float64
	WeightKG *float64
	// BMIValue overrides the value derived from height and weight.
	BMIValue  *float64
	UpdatedAt time.Time
}

// BMI returns the explicit BMI or derives it from height and weight.
// It returns nil when neither is possible.
func (p Patient) BMI() *float64 {
	if p.BMIValue != nil {
		return p.BMIValue
	}
	if p.HeightCM == nil || p.WeightKG == nil || *p.HeightCM <= 0 {
		return nil
	}
	m := *p.HeightCM / 100
	bmi := *p.WeightKG / (m * m)
	return &bmi
}

// Profile returns the subset of the patient the normalizer consumes.
func (p Patient) Profile() PatientProfile {
	return PatientProfile{
		Gender: p.Gender,
		Weight: p.WeightKG,
		BMI:    p.BMI(),
	}
}
