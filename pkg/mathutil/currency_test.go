package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Annual cost", 1788.4999, 1788.50},
		{"Negative number round down", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
		{"Large negative", -12345.678, -12345.68},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"Exactly zero", 0.0, true},
		{"Very small negative", -0.001, true},
		{"Exactly tolerance", 0.01, true},
		{"Just above tolerance", 0.02, false},
		{"Large positive", 100.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsZero(tt.input)
			if result != tt.expected {
				t.Errorf("IsZero(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNonNegative(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Positive unchanged", 12.5, 12.5},
		{"Zero unchanged", 0, 0},
		{"Negative clamped", -3, 0},
		{"NaN clamped", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NonNegative(tt.input)
			if result != tt.expected {
				t.Errorf("NonNegative(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Inside range", 0.45, 0.45},
		{"Below range", -0.2, 0},
		{"Above range", 1.15, 1},
		{"Upper bound", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clamp(tt.input, 0, 1)
			if result != tt.expected {
				t.Errorf("Clamp(%v, 0, 1) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	if !WithinTolerance(1460.0, 1460.004, 0.01) {
		t.Errorf("expected values within tolerance")
	}
	if WithinTolerance(1460.0, 1461.0, 0.01) {
		t.Errorf("expected values outside tolerance")
	}
}
