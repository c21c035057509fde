package model

// FeatureVector is the fully-populated input to the oracle.
type FeatureVector struct {
	Age                float64 `json:"age"`
	Sex                float64 `json:"sex"` // 0 female, 1 male
	Weight             float64 `json:"weight"`
	BMI                float64 `json:"bmi"`
	DehydrationLevel   float64 `json:"dehydration_level"`
	HeatIndex          float64 `json:"heat_index"`
	Temperature        float64 `json:"temperature"`
	Humidity           float64 `json:"humidity"` // fraction
	Pulse              float64 `json:"pulse"`
	PatientTemperature float64 `json:"patient_temperature"`
	Sweating           float64 `json:"sweating"`
	HotDrySkin         float64 `json:"hot_dry_skin"`
}
