package application

import (
	"fmt"
	"strings"
	"time"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// ValidateUnit checks that a threshold lies in [0,1]
func ValidateUnit(fieldName string, value float64) error {
	if value < 0 || value > 1 {
		return &RangeError{Field: fieldName, Value: value, Lo: 0, Hi: 1}
	}
	return nil
}

// ValidatePositive checks that a count is at least 1
func ValidatePositive(fieldName string, value int) error {
	if value < 1 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be positive, got %d", formatFieldName(fieldName), value),
		}
	}
	return nil
}

// ValidateNonNegative checks that a numeric option is not below zero
func ValidateNonNegative(fieldName string, value float64) error {
	if value < 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must not be negative, got %g", formatFieldName(fieldName), value),
		}
	}
	return nil
}

// ValidateDuration checks that a timeout is set
func ValidateDuration(fieldName string, value time.Duration) error {
	if value <= 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be positive, got %s", formatFieldName(fieldName), value),
		}
	}
	return nil
}

// formatFieldName converts option names to space-separated words
// for more readable error messages (e.g., "minWindow" -> "min window")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"stride":            "frame stride",
		"minimumGap":        "minimum gap",
		"initialWindow":     "initial window",
		"minWindow":         "min window",
		"missPenalty":       "miss penalty",
		"hitReward":         "hit reward",
		"waitTimeout":       "wait timeout",
		"seedFrames":        "seed frames",
		"framesDir":         "frames directory",
		"manifestPath":      "manifest path",
		"distinctThreshold": "distinct threshold",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}
