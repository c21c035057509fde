package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/heatguard/internal/adapters/repository"
	service "github.com/okian/heatguard/internal/app"
	"github.com/okian/heatguard/internal/domain/normalize"
	"github.com/okian/heatguard/internal/domain/oracle"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest   = "bad_request"
	codeMissingField = "missing_field"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeModelError   = "model_error"
	codeUnavailable  = "unavailable"
	codeInternal     = "internal_error"
)

// WrapKind annotates err with the operation and a sentinel kind.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// statusFor maps service and domain errors onto HTTP status and code.
func statusFor(err error) (int, string) {
	var (
		missing *normalize.MissingRequiredFieldError
		invoke  *oracle.ModelInvocationError
	)
	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, codeMissingField
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidPage),
		errors.Is(err, repository.ErrInvalid):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, service.ErrPatientNotFound),
		errors.Is(err, service.ErrAssessmentNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrIdempotencyInFlight):
		return http.StatusConflict, codeConflict
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.As(err, &invoke):
		return http.StatusInternalServerError, codeModelError
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
