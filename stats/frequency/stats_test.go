package frequency

import (
	"math"
	"testing"
)

const tolerance = 1e-9

// makeSingleBinSpectrum creates a spectrum of given length with a single
// non-zero bin at the specified index.
func makeSingleBinSpectrum(n, bin int, amplitude float64) []float64 {
	mag := make([]float64, n)
	if bin >= 0 && bin < n {
		mag[bin] = amplitude
	}

	return mag
}

func TestCalculateEmpty(t *testing.T) {
	s := Calculate(nil, 1)
	if s.BinCount != 0 || s.Mean != 0 || s.Centroid != 0 {
		t.Fatalf("unexpected stats for empty spectrum: %+v", s)
	}
}

func TestCalculateAllZero(t *testing.T) {
	s := Calculate(make([]float64, 256), 100.0/512)
	if s.MaxBin != 0 {
		t.Fatalf("MaxBin = %d, want 0", s.MaxBin)
	}
	if s.Centroid != 0 {
		t.Fatalf("Centroid = %v, want 0", s.Centroid)
	}
}

func TestCalculateSingleBin(t *testing.T) {
	binHz := 100.0 / 512
	s := Calculate(makeSingleBinSpectrum(256, 40, 8), binHz)

	if s.MaxBin != 40 || s.Max != 8 {
		t.Fatalf("Max = %v at %d, want 8 at 40", s.Max, s.MaxBin)
	}
	if math.Abs(s.Centroid-40*binHz) > tolerance {
		t.Fatalf("Centroid = %v, want %v", s.Centroid, 40*binHz)
	}
	if math.Abs(s.Mean-8.0/256) > tolerance {
		t.Fatalf("Mean = %v, want %v", s.Mean, 8.0/256)
	}
}

func TestMeanOfMeans(t *testing.T) {
	got := MeanOfMeans([][]float64{{1, 1}, {3, 3}})
	if math.Abs(got-2) > tolerance {
		t.Fatalf("MeanOfMeans = %v, want 2", got)
	}
	if MeanOfMeans(nil) != 0 {
		t.Fatal("MeanOfMeans(nil) should be 0")
	}
}
