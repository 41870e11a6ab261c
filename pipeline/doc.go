// Package pipeline wires the analysis cycle together.
//
// [Pipeline.Process] is one pure cycle: spectra of every tracked axis, the
// dominant bin, per-axis mode-shape fits and the controller step for the
// control axis. [Runner] is the single-goroutine event loop around it: it
// reads sensor records, fills the sliding windows, gates cycles, dispatches
// commands and commits controller state according to the commit policy.
package pipeline
