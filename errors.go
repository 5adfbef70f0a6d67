package main

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotReady is returned when an image has not been decoded yet or its
	// displayed size has not been measured. Callers disable the action instead of
	// failing.
	ErrInputNotReady = errors.New("input not ready")
	// ErrMissingStaging is returned when a view is entered without the payload it
	// expects from the previous stage.
	ErrMissingStaging = errors.New("missing staging payload")
	// ErrEncoding is returned when a raster could not be produced. The action can
	// be retried.
	ErrEncoding = errors.New("encoding failed")
	// ErrUnsupportedImage is returned for uploads that are not an accepted image type.
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// ValidationError blocks a single action. The state that failed validation is
// left untouched so the user can correct it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
