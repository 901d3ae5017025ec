// Package sim provides an in-memory machine implementing the spi contracts:
// one head, a pin actuator, and a vision-capable camera that renders
// synthetic frames of a tape feature at a configurable physical position.
//
// The camera renders whatever it would see from the head's current pose, so
// the full vision correction loop (position camera, capture, template match,
// pixel-to-unit conversion) runs for real against the rendered frames. Used
// by the feedctl CLI and by integration-style tests.
package sim
