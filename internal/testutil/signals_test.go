package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(5, 100, 1.0, 100)
	if len(s) != 100 {
		t.Fatalf("len = %d, want 100", len(s))
	}
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestDeterministicCosineStartsAtAmplitude(t *testing.T) {
	c := DeterministicCosine(5, 100, 2.5, 8)
	if math.Abs(c[0]-2.5) > 1e-15 {
		t.Fatalf("c[0] = %v, want 2.5", c[0])
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
}

func TestDC(t *testing.T) {
	for i, v := range DC(3.5, 10) {
		if v != 3.5 {
			t.Fatalf("DC[%d] = %v, want 3.5", i, v)
		}
	}
}

func TestModalColumns(t *testing.T) {
	cols := ModalColumns(5, 100, 1000, []float64{1, -2}, 4)
	if len(cols) != 2 || len(cols[0]) != 4 {
		t.Fatalf("unexpected shape %dx%d", len(cols), len(cols[0]))
	}
	if math.Abs(cols[0][0]-1001) > 1e-12 || math.Abs(cols[1][0]-998) > 1e-12 {
		t.Fatalf("first row = (%v, %v), want (1001, 998)", cols[0][0], cols[1][0])
	}
}

func TestFrameLines(t *testing.T) {
	x := [][]float64{{1.4, -2}, {3, 4}}
	z := [][]float64{{-5, 6.6}, {7, -8}}
	lines := FrameLines(x, z)
	want := []string{"1,-5,3,7", "-2,7,4,-8"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if FrameLines(x, z[:1]) != nil {
		t.Fatal("mismatched column counts should yield nil")
	}
}
