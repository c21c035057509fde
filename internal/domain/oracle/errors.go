package oracle

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for oracle errors.
var (
	ErrNotReady    = errors.New("oracle not ready")
	ErrNilOracle   = errors.New("oracle is nil")
	ErrSchemaDrift = errors.New("oracle schema does not match feature contract")
)

// ModelInvocationError wraps any failure to obtain probabilities from the
// oracle. It signals a broken dependency, never bad input.
type ModelInvocationError struct {
	Err error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// SchemaError reports an oracle that declares none of the probability
// outputs.
type SchemaError struct {
	MissingOutputs []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: missing outputs: %s", ErrSchemaDrift, strings.Join(e.MissingOutputs, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaDrift }
