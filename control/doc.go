// Package control turns a fitted mode shape into incremental tuned-mass-damper
// position commands.
//
// The controller locates the strongest displacement of the fitted curve
// inside a search region, compares it with the last committed damper
// position and converts the difference into a lead-screw rotation:
//
//	delta_norm = x_max - start_norm
//	delta_cm   = delta_norm * Height
//	delta_deg  = delta_cm * 360 / PitchCM
//
// [Controller.Step] is pure. The caller owns [State] and decides, through a
// [CommitPolicy], whether the returned state replaces the previous one.
package control
