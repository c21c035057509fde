package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/types"
)

// observationRequest carries raw readings. Required fields are checked by
// the normalizer so missing ones surface as missing_field errors.
type observationRequest struct {
	Temperature        *float64 `json:"temperature"`
	Humidity           *float64 `json:"humidity"`
	Pulse              *float64 `json:"pulse" validate:"omitempty,gte=0"`
	DehydrationLevel   *float64 `json:"dehydration_level,omitempty" validate:"omitempty,gte=0"`
	HeatIndex          *float64 `json:"heat_index,omitempty"`
	PatientTemperature *float64 `json:"patient_temperature,omitempty"`
	Sweating           *float64 `json:"sweating,omitempty" validate:"omitempty,gte=0"`
	HotDrySkin         *float64 `json:"hot_dry_skin,omitempty" validate:"omitempty,gte=0"`
	Age                *float64 `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
}

func (o observationRequest) toModel() model.Observation {
	return model.Observation{
		Temperature:        o.Temperature,
		Humidity:           o.Humidity,
		Pulse:              o.Pulse,
		DehydrationLevel:   o.DehydrationLevel,
		HeatIndex:          o.HeatIndex,
		PatientTemperature: o.PatientTemperature,
		Sweating:           o.Sweating,
		HotDrySkin:         o.HotDrySkin,
		Age:                o.Age,
	}
}

type profileRequest struct {
	Gender string   `json:"gender,omitempty" validate:"omitempty,oneof=M F m f"`
	Weight *float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
	BMI    *float64 `json:"bmi,omitempty" validate:"omitempty,gt=0"`
}

// assessRequest mirrors the OpenAPI schema for POST /api/assess.
type assessRequest struct {
	observationRequest
	Profile *profileRequest `json:"profile,omitempty"`
}

func (a assessRequest) profile() *model.PatientProfile {
	if a.Profile == nil {
		return nil
	}
	return &model.PatientProfile{
		Gender: model.ParseGender(a.Profile.Gender),
		Weight: a.Profile.Weight,
		BMI:    a.Profile.BMI,
	}
}

// createPredictionRequest mirrors the OpenAPI schema for POST /api/predictions.
type createPredictionRequest struct {
	observationRequest
	PatientID      string `json:"patient_id" validate:"required,max=128"`
	Notes          string `json:"notes,omitempty" validate:"max=2000"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"max=128"`
}

// patientRequest mirrors the OpenAPI schema for PUT /api/patients/{id}.
type patientRequest struct {
	Name     string   `json:"name,omitempty" validate:"max=200"`
	Gender   string   `json:"gender,omitempty" validate:"omitempty,oneof=M F m f"`
	HeightCM *float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0,lte=300"`
	WeightKG *float64 `json:"weight_kg,omitempty" validate:"omitempty,gt=0,lte=700"`
	BMI      *float64 `json:"bmi,omitempty" validate:"omitempty,gt=0"`
}

func (p patientRequest) toModel(id string) model.Patient {
	return model.Patient{
		ID:       id,
		Name:     p.Name,
		Gender:   model.ParseGender(p.Gender),
		HeightCM: p.HeightCM,
		WeightKG: p.WeightKG,
		BMIValue: p.BMI,
	}
}

type inputsResponse struct {
	Temperature      float64  `json:"temperature"`
	Humidity         float64  `json:"humidity"`
	Pulse            float64  `json:"pulse"`
	DehydrationLevel *float64 `json:"dehydration_level,omitempty"`
	HeatIndex        *float64 `json:"heat_index,omitempty"`
}

type assessmentResponse struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	model.AssessmentResult
	Inputs       inputsResponse `json:"inputs"`
	ModelVersion string         `json:"model_version"`
	AssessedAt   string         `json:"assessed_at"`
	Notes        string         `json:"notes,omitempty"`
}

func newAssessmentResponse(a model.Assessment) assessmentResponse {
	return assessmentResponse{
		ID:               a.ID,
		PatientID:        a.PatientID,
		AssessmentResult: a.Result,
		Inputs: inputsResponse{
			Temperature:      a.Temperature,
			Humidity:         a.Humidity,
			Pulse:            a.Pulse,
			DehydrationLevel: a.DehydrationLevel,
			HeatIndex:        a.HeatIndex,
		},
		ModelVersion: a.ModelVersion,
		AssessedAt:   a.AssessedAt.UTC().Format(time.RFC3339Nano),
		Notes:        a.Notes,
	}
}

type pageResponse struct {
	Items      []assessmentResponse `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	Size       int                  `json:"size"`
	TotalPages int                  `json:"total_pages"`
}

func newPageResponse(p types.Page[model.Assessment]) pageResponse {
	items := make([]assessmentResponse, 0, len(p.Items))
	for _, a := range p.Items {
		items = append(items, newAssessmentResponse(a))
	}
	return pageResponse{Items: items, Total: p.Total, Page: p.Page, Size: p.Size, TotalPages: p.TotalPages()}
}

type patientResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	HeightCM  *float64 `json:"height_cm,omitempty"`
	WeightKG  *float64 `json:"weight_kg,omitempty"`
	BMI       *float64 `json:"bmi,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

func newPatientResponse(p model.Patient) patientResponse {
	return patientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Gender:    string(p.Gender),
		HeightCM:  p.HeightCM,
		WeightKG:  p.WeightKG,
		BMI:       p.BMI(),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, name)
	}
	return v, nil
}

// validationMessage flattens validator errors into one readable error.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
