// Package modal fits measured per-sensor amplitudes to the second bending
// mode of a cantilever beam.
//
// The mode shape over normalized height x is
//
//	phi(x) = A * [cos(bx) - cosh(bx) - eta*(sin(bx) - sinh(bx))]
//
// [FixedBeta] fits only the amplitude A with b and eta held constant.
// [FreeBeta] fits A and b within bounds and derives eta from b via [Eta].
// Fitting is a bounded Levenberg-Marquardt least-squares solve.
package modal
