// Package time provides time-domain statistics for sensor sample columns.
package time

import "math"

// DC returns the mean (DC offset) of the signal.
func DC(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	// Kahan summation: raw accelerometer counts carry a large static offset.
	var sum, c float64
	for _, x := range signal {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(signal))
}

// RemoveDC returns a copy of signal with its mean subtracted.
func RemoveDC(signal []float64) []float64 {
	out := make([]float64, len(signal))
	mean := DC(signal)
	for i, x := range signal {
		out[i] = x - mean
	}

	return out
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// MeanRMS returns the average RMS over several columns.
func MeanRMS(columns [][]float64) float64 {
	if len(columns) == 0 {
		return 0
	}

	var sum float64
	for _, col := range columns {
		sum += RMS(col)
	}

	return sum / float64(len(columns))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	var peak float64
	for _, x := range signal {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}

	return peak
}
