// Package buffer provides the sliding sample window that feeds spectral
// analysis. A Window keeps the most recent W rows of per-sensor samples for
// one axis and hands out copies of them as column-major snapshots.
package buffer
