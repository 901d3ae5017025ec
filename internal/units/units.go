package units

import "fmt"

// LengthUnit identifies one of the supported length units.
//
// The enumeration is closed: conversion factors are predefined for every
// unit, so conversion between any pair is total and never fails.
type LengthUnit int

const (
	Millimeters LengthUnit = iota
	Centimeters
	Microns
	Meters
	Inches
	Mils
	Feet
)

// millimetersPer maps each unit to its size in millimeters.
var millimetersPer = [...]float64{
	Millimeters: 1,
	Centimeters: 10,
	Microns:     0.001,
	Meters:      1000,
	Inches:      25.4,
	Mils:        0.0254,
	Feet:        304.8,
}

var unitNames = [...]string{
	Millimeters: "mm",
	Centimeters: "cm",
	Microns:     "um",
	Meters:      "m",
	Inches:      "in",
	Mils:        "mil",
	Feet:        "ft",
}

// String returns the short name used in configuration files ("mm", "in", ...).
func (u LengthUnit) String() string {
	if u < 0 || int(u) >= len(unitNames) {
		return fmt.Sprintf("LengthUnit(%d)", int(u))
	}
	return unitNames[u]
}

// ParseLengthUnit parses a short unit name as written in configuration files.
func ParseLengthUnit(s string) (LengthUnit, error) {
	for u, name := range unitNames {
		if name == s {
			return LengthUnit(u), nil
		}
	}
	return Millimeters, fmt.Errorf("unknown length unit %q", s)
}

// Factor returns the multiplier converting a value in u to a value in to.
func (u LengthUnit) Factor(to LengthUnit) float64 {
	return millimetersPer[u] / millimetersPer[to]
}

// Length is a scalar distance (or rate, per second) tagged with its unit.
type Length struct {
	Value float64
	Units LengthUnit
}

// NewLength returns a Length with the given value and unit.
func NewLength(value float64, units LengthUnit) Length {
	return Length{Value: value, Units: units}
}

// ConvertToUnits returns the equivalent Length expressed in the given unit.
func (l Length) ConvertToUnits(to LengthUnit) Length {
	if l.Units == to {
		return l
	}
	return Length{Value: l.Value * l.Units.Factor(to), Units: to}
}

// String formats the length as "value unit", e.g. "2.500 mm".
func (l Length) String() string {
	return fmt.Sprintf("%.3f %s", l.Value, l.Units)
}
