package units

import "fmt"

// Location is a point plus orientation in a named unit space: X, Y, Z in the
// location's unit, Rotation in degrees about Z.
//
// Geometric operations are component-wise and require both operands to be in
// the same unit space. Mixing units is a programming invariant violation,
// not a recoverable condition, and panics; callers normalize with
// ConvertToUnits before doing arithmetic.
type Location struct {
	Units    LengthUnit
	X        float64
	Y        float64
	Z        float64
	Rotation float64
}

// NewLocation returns a Location in the given unit space.
func NewLocation(units LengthUnit, x, y, z, rotation float64) Location {
	return Location{Units: units, X: x, Y: y, Z: z, Rotation: rotation}
}

// ConvertToUnits returns the equivalent Location expressed in the given
// unit. Rotation is unit-less and carried through unchanged.
func (l Location) ConvertToUnits(to LengthUnit) Location {
	if l.Units == to {
		return l
	}
	f := l.Units.Factor(to)
	return Location{
		Units:    to,
		X:        l.X * f,
		Y:        l.Y * f,
		Z:        l.Z * f,
		Rotation: l.Rotation,
	}
}

// Add returns the component-wise sum l + o. Both operands must be in the
// same unit space.
func (l Location) Add(o Location) Location {
	l.sameUnits(o)
	return Location{
		Units:    l.Units,
		X:        l.X + o.X,
		Y:        l.Y + o.Y,
		Z:        l.Z + o.Z,
		Rotation: l.Rotation + o.Rotation,
	}
}

// Subtract returns the component-wise difference l - o. Both operands must
// be in the same unit space.
func (l Location) Subtract(o Location) Location {
	l.sameUnits(o)
	return Location{
		Units:    l.Units,
		X:        l.X - o.X,
		Y:        l.Y - o.Y,
		Z:        l.Z - o.Z,
		Rotation: l.Rotation - o.Rotation,
	}
}

// Negate returns the location with every component sign-flipped.
func (l Location) Negate() Location {
	return Location{
		Units:    l.Units,
		X:        -l.X,
		Y:        -l.Y,
		Z:        -l.Z,
		Rotation: -l.Rotation,
	}
}

func (l Location) sameUnits(o Location) {
	if l.Units != o.Units {
		panic(fmt.Sprintf("units: mixed-unit arithmetic: %s vs %s", l.Units, o.Units))
	}
}

// String formats the location as "(x, y, z, rot unit)".
func (l Location) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f %s)", l.X, l.Y, l.Z, l.Rotation, l.Units)
}
