package pmml

import "errors"

// Sentinel kinds for PMML loading and evaluation errors.
var (
	ErrParse        = errors.New("pmml parse failed")
	ErrUnsupported  = errors.New("unsupported pmml construct")
	ErrInvalidModel = errors.New("invalid pmml model")
	ErrMissingValue = errors.New("missing value for active field")
	ErrInvalidValue = errors.New("invalid value for active field")
)
