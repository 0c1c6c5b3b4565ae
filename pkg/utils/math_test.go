package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	NormalizeL2(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("got %v", x)
	}
	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestIsZeroVector(t *testing.T) {
	if !IsZeroVector(nil) {
		t.Error("nil should be zero")
	}
	if !IsZeroVector([]float32{0, 0}) {
		t.Error("all zeros should be zero")
	}
	if IsZeroVector([]float32{0, 0.1}) {
		t.Error("non-zero component")
	}
}
