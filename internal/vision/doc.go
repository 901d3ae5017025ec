// Package vision computes the planar correction between where a tape
// feature was expected to be and where it actually is.
//
// Two pieces live here:
//
//   - Matcher, a normalized cross-correlation template matcher that
//     implements spi.VisionProvider over any frame source.
//   - OffsetFinder, the camera-positioning pipeline: it places a
//     vision-capable camera over a target location, lets the mechanics
//     settle, runs the template match over the configured area of interest,
//     and converts the best pixel-space match into a physical offset.
//
// # Pixel To Machine Conversion
//
// Match coordinates arrive as top-left corners in image space, where Y grows
// downward. The pipeline re-centers them by half the template extent, takes
// the difference from the image center, inverts the Y sign (machine Y grows
// upward), and scales both axes by the camera's units-per-pixel calibration
// normalized to the machine's native units. The resulting offset is strictly
// planar: Z and Rotation are always zero.
package vision
