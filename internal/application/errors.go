package application

import (
	"errors"
	"fmt"

	"toponav/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound     = domain.ErrNotFound
	ErrLoad         = domain.ErrLoad
	ErrInvalidInput = errors.New("invalid input")
	ErrRange        = errors.New("value out of range")
	ErrNoCandidates = errors.New("no candidate nodes")
	ErrNoKeyFrames  = errors.New("no keyframes")
)

// Re-export graph errors for use by adapters
type (
	NotFoundError = domain.NotFoundError
	LoadError     = domain.LoadError
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RangeError reports a parameter outside its permitted interval
type RangeError struct {
	Field  string
	Value  float64
	Lo, Hi float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s = %g not in [%g, %g]", e.Field, e.Value, e.Lo, e.Hi)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}
