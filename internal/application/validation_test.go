package application

import (
	"errors"
	"testing"
	"time"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
	}{
		{
			name:      "valid value",
			fieldName: "framesDir",
			value:     "testdata/frames",
			wantErr:   false,
		},
		{
			name:      "empty string",
			fieldName: "framesDir",
			value:     "",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			fieldName: "manifestPath",
			value:     "   ",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				if valErr.Field != tt.fieldName {
					t.Errorf("expected field %s, got %s", tt.fieldName, valErr.Field)
				}
			}
		})
	}
}

func TestValidateUnit(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{name: "zero", value: 0, wantErr: false},
		{name: "one", value: 1, wantErr: false},
		{name: "ratio", value: 0.7, wantErr: false},
		{name: "negative", value: -0.1, wantErr: true},
		{name: "above one", value: 1.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUnit("ratio", tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateUnit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrRange) {
				t.Errorf("expected ErrRange, got %v", err)
			}
		})
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("stride", 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := ValidatePositive("stride", 0)
	if err == nil {
		t.Fatal("expected error for zero stride")
	}
	if want := "stride: frame stride must be positive, got 0"; err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestValidateDuration(t *testing.T) {
	if err := ValidateDuration("waitTimeout", time.Second); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateDuration("waitTimeout", 0); err == nil {
		t.Error("expected error for zero timeout")
	}
}
