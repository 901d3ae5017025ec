package units

import (
	"math"
	"testing"
)

var allUnits = []LengthUnit{Millimeters, Centimeters, Microns, Meters, Inches, Mils, Feet}

func TestLengthConvert(t *testing.T) {
	tests := []struct {
		name string
		in   Length
		to   LengthUnit
		want float64
	}{
		{"mm to mm", NewLength(12.5, Millimeters), Millimeters, 12.5},
		{"inches to mm", NewLength(1, Inches), Millimeters, 25.4},
		{"mm to inches", NewLength(25.4, Millimeters), Inches, 1},
		{"cm to mm", NewLength(2, Centimeters), Millimeters, 20},
		{"microns to mm", NewLength(1500, Microns), Millimeters, 1.5},
		{"meters to cm", NewLength(0.5, Meters), Centimeters, 50},
		{"mils to microns", NewLength(1, Mils), Microns, 25.4},
		{"feet to inches", NewLength(2, Feet), Inches, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.ConvertToUnits(tt.to)
			if got.Units != tt.to {
				t.Errorf("Units: got %s, want %s", got.Units, tt.to)
			}
			if math.Abs(got.Value-tt.want) > 1e-9 {
				t.Errorf("Value: got %v, want %v", got.Value, tt.want)
			}
		})
	}
}

func TestLengthConvertRoundTrip(t *testing.T) {
	// A→B→A must reproduce the original value for every unit pair.
	for _, from := range allUnits {
		for _, to := range allUnits {
			orig := NewLength(3.7251, from)
			back := orig.ConvertToUnits(to).ConvertToUnits(from)
			if math.Abs(back.Value-orig.Value) > 1e-9*math.Abs(orig.Value) {
				t.Errorf("%s -> %s -> %s: got %v, want %v", from, to, from, back.Value, orig.Value)
			}
		}
	}
}

func TestParseLengthUnit(t *testing.T) {
	for _, u := range allUnits {
		got, err := ParseLengthUnit(u.String())
		if err != nil {
			t.Fatalf("ParseLengthUnit(%q) failed: %v", u.String(), err)
		}
		if got != u {
			t.Errorf("ParseLengthUnit(%q): got %v, want %v", u.String(), got, u)
		}
	}

	if _, err := ParseLengthUnit("furlong"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
