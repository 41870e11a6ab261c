package window

import (
	"math"
	"testing"
)

func TestGenerateRectangularIsOnes(t *testing.T) {
	w := Generate(TypeRectangular, 16)
	for i, v := range w {
		if v != 1 {
			t.Fatalf("index %d: got %v, want 1", i, v)
		}
	}
	if Generate(TypeHann, 0) != nil {
		t.Fatal("Generate with length 0 should return nil")
	}
}

func TestGenerateSymmetry(t *testing.T) {
	for _, typ := range []Type{TypeHann, TypeHamming, TypeBlackman, TypeFlatTop} {
		w := Generate(typ, 33)
		for i := range w {
			if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
				t.Fatalf("%s not symmetric at %d: %v vs %v", typ, i, w[i], w[len(w)-1-i])
			}
		}
	}
}

func TestGeneratePeriodicHann(t *testing.T) {
	w := Generate(TypeHann, 8, WithPeriodic())
	if math.Abs(w[4]-1) > 1e-12 {
		t.Fatalf("periodic Hann centre = %v, want 1", w[4])
	}
	g, err := CoherentGain(w)
	if err != nil {
		t.Fatalf("CoherentGain error: %v", err)
	}
	if math.Abs(g-0.5) > 1e-12 {
		t.Fatalf("periodic Hann coherent gain = %v, want 0.5", g)
	}
}

func TestCoherentGainErrors(t *testing.T) {
	if _, err := CoherentGain(nil); err == nil {
		t.Fatal("expected error for empty coefficients")
	}
	if _, err := CoherentGain([]float64{0, 0}); err == nil {
		t.Fatal("expected error for zero gain")
	}
}

func TestApplyCoefficientsInPlace(t *testing.T) {
	s := []float64{2, 2, 2}
	if err := ApplyCoefficientsInPlace(s, []float64{0, 0.5, 1}); err != nil {
		t.Fatalf("ApplyCoefficientsInPlace error: %v", err)
	}
	want := []float64{0, 1, 2}
	for i := range want {
		if math.Abs(s[i]-want[i]) > 1e-12 {
			t.Fatalf("index %d: got %v, want %v", i, s[i], want[i])
		}
	}
	if err := ApplyCoefficientsInPlace(s, []float64{1}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestParseType(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Type
	}{
		{"", TypeRectangular},
		{"none", TypeRectangular},
		{"rectangular", TypeRectangular},
		{"HAMMING", TypeHamming},
		{"flat-top", TypeFlatTop},
	} {
		got, err := ParseType(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ParseType(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseType("kaiser"); err == nil {
		t.Fatal("expected error for unsupported window")
	}
}
