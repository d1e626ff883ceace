package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	ErrorKindInputValidation      ErrorKind = "input_validation"
	ErrorKindModelInvocation      ErrorKind = "model_invocation"
	ErrorKindNoQuerySpec          ErrorKind = "no_query_spec"
	ErrorKindMalformedQuerySpec   ErrorKind = "malformed_query_spec"
	ErrorKindMissingCollection    ErrorKind = "missing_collection"
	ErrorKindFindExecution        ErrorKind = "find_execution"
	ErrorKindAggregationExecution ErrorKind = "aggregation_execution"
)

// PipelineError represents a pipeline-specific error with context
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError creates a new pipeline error
func NewError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func InputValidationError(message string) *PipelineError {
	return NewError(ErrorKindInputValidation, message, nil)
}

func ModelInvocationError(message string, err error) *PipelineError {
	return NewError(ErrorKindModelInvocation, message, err)
}

func NoQuerySpecFoundError(message string) *PipelineError {
	return NewError(ErrorKindNoQuerySpec, message, nil)
}

func MalformedQuerySpecError(message string) *PipelineError {
	return NewError(ErrorKindMalformedQuerySpec, message, nil)
}

func MissingCollectionError(message string) *PipelineError {
	return NewError(ErrorKindMissingCollection, message, nil)
}

// FindExecutionError wraps a store failure during a find, preserving the
// original store message for diagnostic pattern matching by callers.
func FindExecutionError(message string, err error) *PipelineError {
	return NewError(ErrorKindFindExecution, message, err)
}

// AggregationExecutionError wraps a store failure during an aggregation,
// preserving the original store message (e.g. "$size" or "lookup" hints).
func AggregationExecutionError(message string, err error) *PipelineError {
	return NewError(ErrorKindAggregationExecution, message, err)
}

// KindOf returns the ErrorKind of err, or "" if err carries no PipelineError.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
