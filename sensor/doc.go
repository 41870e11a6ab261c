// Package sensor turns raw accelerometer records into structured frames.
//
// A record is one newline-terminated line of comma-separated signed integers,
// two per sensor position (axis 1 then axis 2). With three sensors:
//
//	AcX1,AcZ1,AcX2,AcZ2,AcX3,AcZ3
//
// A frame is produced only when every field is present and numeric; partial
// records are rejected as a whole.
package sensor
