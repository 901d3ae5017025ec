// Package units provides the length and location value types all machine
// geometry is expressed in.
//
// Every quantity carries its unit. Arithmetic between two values requires
// matching units; callers normalize with ConvertToUnits first. Conversion is
// a pure, total function over a closed unit enumeration: there is no error
// case, and a round-trip conversion reproduces the original value within
// floating-point tolerance.
//
// # Coordinate Convention
//
// Locations follow the machine convention: X increases rightward, Y
// increases away from the operator (machine-up in camera terms), Z increases
// upward, Rotation is degrees about Z. Pixel-space coordinates, where Y
// grows downward, are handled in the vision package and converted before
// they ever become a Location.
package units
