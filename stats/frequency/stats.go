// Package frequency provides summary statistics over magnitude spectra.
package frequency

// Stats summarizes one magnitude spectrum.
type Stats struct {
	BinCount int
	Mean     float64 // mean magnitude
	Max      float64
	MaxBin   int
	Centroid float64 // Hz
}

// Calculate computes Stats for a magnitude spectrum whose bin k lies at
// k*binHz.
func Calculate(magnitude []float64, binHz float64) Stats {
	n := len(magnitude)
	if n == 0 {
		return Stats{}
	}

	var sum, weighted float64
	s := Stats{BinCount: n, Max: magnitude[0]}
	for i, v := range magnitude {
		sum += v
		weighted += float64(i) * binHz * v
		if v > s.Max {
			s.Max = v
			s.MaxBin = i
		}
	}

	s.Mean = sum / float64(n)
	if sum > 0 {
		s.Centroid = weighted / sum
	}

	return s
}

// Mean returns the mean magnitude of one spectrum.
func Mean(magnitude []float64) float64 {
	if len(magnitude) == 0 {
		return 0
	}
	var sum float64
	for _, v := range magnitude {
		sum += v
	}
	return sum / float64(len(magnitude))
}

// MeanOfMeans averages the per-spectrum mean magnitudes of several spectra.
func MeanOfMeans(spectra [][]float64) float64 {
	if len(spectra) == 0 {
		return 0
	}
	var sum float64
	for _, m := range spectra {
		sum += Mean(m)
	}
	return sum / float64(len(spectra))
}

// Centroid returns the spectral centroid in Hz.
//
//	centroid = sum(f_k * |X_k|) / sum(|X_k|)
func Centroid(magnitude []float64, binHz float64) float64 {
	return Calculate(magnitude, binHz).Centroid
}
