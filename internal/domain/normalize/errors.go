package normalize

import "fmt"

// Required observation field names, as reported by MissingRequiredFieldError.
const (
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldPulse       = "pulse"
)

// MissingRequiredFieldError reports an absent required observation field.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}
