package spi

import (
	"image"

	"github.com/openplacer/tapefeeder/internal/units"
)

// Machine is the top-level hardware aggregate a head belongs to.
type Machine interface {
	// NativeUnits is the single canonical unit all internal geometry on
	// this machine is performed in.
	NativeUnits() units.LengthUnit

	// Cameras returns every camera on the machine, head-mounted or fixed,
	// in a stable order.
	Cameras() []Camera
}

// Head is a movable toolhead. Moves block until the motion completes and
// fail if the position cannot be reached.
type Head interface {
	ID() string
	Machine() Machine

	// MoveToSafeZ raises the head to a height guaranteed collision-free
	// for lateral travel.
	MoveToSafeZ() error

	// MoveTo moves to the given pose at the head's default rate.
	// Coordinates are in the machine's native units.
	MoveTo(x, y, z, rotation float64) error

	// MoveToAtRate moves to the given pose at an explicit rate, in native
	// units per second. Used where travel speed affects mechanical
	// behavior, such as the tape drag stroke.
	MoveToAtRate(x, y, z, rotation, rate float64) error

	// Current pose, in native units.
	X() float64
	Y() float64
	Z() float64
	Rotation() float64

	// Actuator returns the actuator with the given id mounted on this
	// head, or nil if there is none.
	Actuator(id string) Actuator
}

// Actuator is a binary physical output mounted on a head, such as the tape
// feeder's drag pin.
type Actuator interface {
	ID() string

	// Actuate toggles the output. Blocks until the physical state change
	// has completed.
	Actuate(on bool) error

	// Location is the actuator's mounting offset relative to the head
	// origin.
	Location() units.Location
}

// Camera is an image source, optionally head-mounted and optionally capable
// of vision analysis.
type Camera interface {
	ID() string

	// Head returns the head this camera is mounted on, or nil for a fixed
	// camera.
	Head() Head

	// Location is the camera's mounting offset relative to the head
	// origin.
	Location() units.Location

	// UnitsPerPixel is the physical size of one pixel in the camera's
	// image, X and Y, as a Location (Z and Rotation unused).
	UnitsPerPixel() units.Location

	// Capture grabs one frame.
	Capture() (image.Image, error)

	// VisionProvider returns the camera's vision capability, or nil if
	// the camera cannot run vision analysis.
	VisionProvider() VisionProvider
}

// VisionProvider locates template matches within a captured frame.
type VisionProvider interface {
	// LocateTemplateMatches searches the rectangle (x, y, w, h) of the
	// current frame for the template and returns the top-left corners of
	// candidate matches in pixel space, ordered best match first. roll
	// allows for template rotation and contrast sets a floor on accepted
	// window contrast; implementations may ignore either.
	LocateTemplateMatches(x, y, w, h int, roll, contrast float64, template image.Image) ([]image.Point, error)
}
