package testutil

import (
	"math"
	"math/rand"
	"strconv"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicCosine generates a deterministic cosine wave. At an exact bin
// frequency its FFT bin is real with value amplitude*length/2.
func DeterministicCosine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Cos(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// ModalColumns builds one cosine column per sensor at freqHz, scaled by the
// per-sensor amplitude and riding on a static offset, as an accelerometer
// axis would report it.
func ModalColumns(freqHz, sampleRate, offset float64, amplitudes []float64, length int) [][]float64 {
	cols := make([][]float64, len(amplitudes))
	for s, amp := range amplitudes {
		col := DeterministicCosine(freqHz, sampleRate, amp, length)
		for i := range col {
			col[i] += offset
		}
		cols[s] = col
	}
	return cols
}

// FrameLines renders per-sensor X and Z columns as sensor records
// "x1,z1,x2,z2,...", rounding every sample to an integer.
func FrameLines(xCols, zCols [][]float64) []string {
	if len(xCols) == 0 || len(xCols) != len(zCols) {
		return nil
	}
	n := len(xCols[0])
	lines := make([]string, n)
	buf := make([]byte, 0, 64)
	for i := range n {
		buf = buf[:0]
		for s := range xCols {
			if s > 0 {
				buf = append(buf, ',')
			}
			buf = strconv.AppendInt(buf, int64(math.Round(xCols[s][i])), 10)
			buf = append(buf, ',')
			buf = strconv.AppendInt(buf, int64(math.Round(zCols[s][i])), 10)
		}
		lines[i] = string(buf)
	}
	return lines
}
