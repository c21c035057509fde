package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted          = errors.New("service not started")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAssessmentNotFound  = errors.New("assessment not found")
	ErrInvalidPage         = errors.New("invalid page request")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrIdempotencyInFlight = errors.New("assessment for idempotency key is still in flight")
)
