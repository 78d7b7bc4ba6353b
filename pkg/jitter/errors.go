package jitter

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying failures with errors.Is.
var (
	ErrValidation    = errors.New("invalid jitter request")
	ErrGeometry      = errors.New("jitter geometry error")
	ErrConfiguration = errors.New("jitter configuration error")
)

// ValidationError reports a request that was rejected before any geometry
// was touched. Message is meant to be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
	Ceiling float64 // the length/3 bound, when it was the violated rule
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("jitter: %s: %s", e.Field, e.Message)
	}
	return "jitter: " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// GeometryError reports an inconsistency found while applying a notch.
// Cuts committed before the failure stay in the sketch.
type GeometryError struct {
	Shape   ShapeKind
	Message string
	Err     error
}

func (e *GeometryError) Error() string {
	msg := fmt.Sprintf("jitter: %s notch: %s", e.Shape, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GeometryError) Unwrap() error { return e.Err }

func (e *GeometryError) Is(target error) bool { return target == ErrGeometry }

// ConfigurationError reports a broken engine setup, such as an empty
// shape registry. It is a build or wiring defect, not bad input.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "jitter: configuration: " + e.Message
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func geometryErr(shape ShapeKind, err error, format string, args ...any) error {
	return &GeometryError{Shape: shape, Message: fmt.Sprintf(format, args...), Err: err}
}
