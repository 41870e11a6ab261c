// Package spectrum computes per-sensor magnitude spectra of sample windows and
// selects the dominant frequency bin.
//
// An [Analyzer] removes the DC offset of every column, optionally applies a
// taper, runs a forward FFT and keeps the first W/2 bins. The aggregate
// spectrum is the bin-wise sum of all sensor magnitudes across all analysed
// axes. A [PeakPolicy] then picks the dominant bin from the aggregate:
// [DisambiguatedPeak] guards against adjacent leakage bins, [RawArgmaxPeak] is
// the reduced global-maximum rule.
package spectrum
