package specmath

import (
	"math"
	"testing"
)

func TestSum(t *testing.T) {
	if got := Sum(nil); got != 0 {
		t.Fatalf("Sum(nil) = %v, want 0", got)
	}

	if got := Sum([]float64{1, 2, 3.5}); math.Abs(got-6.5) > 1e-15 {
		t.Fatalf("Sum = %v, want 6.5", got)
	}
}

func TestDot(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}

	if got := Dot(a, b); math.Abs(got-32) > 1e-15 {
		t.Fatalf("Dot = %v, want 32", got)
	}

	// Mismatched lengths use the shorter slice.
	if got := Dot(a, b[:2]); math.Abs(got-14) > 1e-15 {
		t.Fatalf("Dot short = %v, want 14", got)
	}

	if got := Dot(nil, b); got != 0 {
		t.Fatalf("Dot(nil, b) = %v, want 0", got)
	}
}

func TestDot3(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{3, 4}
	c := []float64{5, 6}

	// 1*3*5 + 2*4*6 = 63
	if got := Dot3(a, b, c); math.Abs(got-63) > 1e-15 {
		t.Fatalf("Dot3 = %v, want 63", got)
	}

	if got := Dot3(a, b, nil); got != 0 {
		t.Fatalf("Dot3 empty = %v, want 0", got)
	}
}

func TestWeightedMean(t *testing.T) {
	x := []float64{10, 20}
	w := []float64{1, 3}

	// (10 + 60) / 4 = 17.5
	if got := WeightedMean(x, w); math.Abs(got-17.5) > 1e-15 {
		t.Fatalf("WeightedMean = %v, want 17.5", got)
	}

	if got := WeightedMean(x, []float64{0, 0}); got != 0 {
		t.Fatalf("WeightedMean zero weights = %v, want 0", got)
	}
}
