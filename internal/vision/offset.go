package vision

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openplacer/tapefeeder/internal/spi"
	"github.com/openplacer/tapefeeder/internal/units"
)

// ErrNoVisionCamera is returned when no vision-capable camera is mounted on
// the head a correction was requested for.
var ErrNoVisionCamera = errors.New("vision: no vision capable camera found on head")

// DefaultSettle is the pause between positioning the camera and capturing,
// covering vibration damping and image latency.
const DefaultSettle = 200 * time.Millisecond

// OffsetFinder runs the vision correction pipeline against a head-mounted
// camera. The zero value is usable and skips the settle delay; production
// callers should use NewOffsetFinder.
type OffsetFinder struct {
	// Settle is how long the head rests before the frame is captured.
	Settle time.Duration
}

// NewOffsetFinder returns an OffsetFinder with the default settle delay.
func NewOffsetFinder() *OffsetFinder {
	return &OffsetFinder{Settle: DefaultSettle}
}

// ComputeOffset positions a vision-capable camera on head over target, runs
// template matching per cfg, and returns the planar correction between the
// expected and actual feature position, in the machine's native units with
// Z and Rotation zero.
//
// The move ordering is fixed: safe Z, then planar, then focus descent.
// Planar positioning happens before any Z move down so a lowered tool is
// never dragged across the work surface.
func (f *OffsetFinder) ComputeOffset(head spi.Head, target units.Location, cfg *Config) (units.Location, error) {
	machine := head.Machine()
	native := machine.NativeUnits()

	var camera spi.Camera
	for _, c := range machine.Cameras() {
		if c.Head() == head && c.VisionProvider() != nil {
			camera = c
			break
		}
	}
	if camera == nil {
		return units.Location{}, ErrNoVisionCamera
	}

	// Subtract the camera's mounting offset rather than adding it: the
	// goal is to position the camera over the target, not to express the
	// target relative to the camera.
	cameraOffsets := camera.Location().ConvertToUnits(native)
	target = target.ConvertToUnits(native)
	x := target.X - cameraOffsets.X
	y := target.Y - cameraOffsets.Y
	z := target.Z - cameraOffsets.Z

	slog.Debug("vision: positioning camera",
		"camera", camera.ID(), "x", x, "y", y, "z", z)

	if err := head.MoveToSafeZ(); err != nil {
		return units.Location{}, err
	}
	if err := head.MoveTo(x, y, head.Z(), head.Rotation()); err != nil {
		return units.Location{}, err
	}
	if err := head.MoveTo(head.X(), head.Y(), z, head.Rotation()); err != nil {
		return units.Location{}, err
	}

	// Let the mechanics settle before the frame is taken. The full delay
	// must elapse; nothing else runs on this head meanwhile.
	if f.Settle > 0 {
		time.Sleep(f.Settle)
	}

	template, err := cfg.Template()
	if err != nil {
		return units.Location{}, fmt.Errorf("vision: loading template: %w", err)
	}
	if template == nil {
		return units.Location{}, errors.New("vision: no template image configured")
	}

	aoi := cfg.AreaOfInterest
	matches, err := camera.VisionProvider().LocateTemplateMatches(
		aoi.X, aoi.Y, aoi.Width, aoi.Height, 0, 0, template)
	if err != nil {
		return units.Location{}, err
	}
	if len(matches) == 0 {
		return units.Location{}, ErrNoMatch
	}
	match := matches[0]

	frame, err := camera.Capture()
	if err != nil {
		return units.Location{}, fmt.Errorf("vision: capture failed: %w", err)
	}

	imageWidth := float64(frame.Bounds().Dx())
	imageHeight := float64(frame.Bounds().Dy())
	templateWidth := float64(template.Bounds().Dx())
	templateHeight := float64(template.Bounds().Dy())

	// The match is the top-left corner; re-center it, then measure how far
	// the match center sits from the image center.
	matchX := float64(match.X) + templateWidth/2
	matchY := float64(match.Y) + templateHeight/2

	offsetX := imageWidth/2 - matchX
	offsetY := imageHeight/2 - matchY

	// Image Y counts top to bottom, machine Y bottom to top.
	offsetY *= -1

	unitsPerPixel := camera.UnitsPerPixel().ConvertToUnits(native)
	offsetX *= unitsPerPixel.X
	offsetY *= unitsPerPixel.Y

	offset := units.NewLocation(native, offsetX, offsetY, 0, 0)
	slog.Debug("vision: computed offset", "camera", camera.ID(), "offset", offset)
	return offset, nil
}
