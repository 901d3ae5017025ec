package feeder

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/openplacer/tapefeeder/internal/spi"
	"github.com/openplacer/tapefeeder/internal/units"
	"github.com/openplacer/tapefeeder/internal/vision"
)

// OffsetSource computes a planar correction for a head over a target
// location. vision.OffsetFinder is the production implementation.
type OffsetSource interface {
	ComputeOffset(head spi.Head, target units.Location, cfg *vision.Config) (units.Location, error)
}

// TapeFeeder advances component tape one pitch per Feed call.
//
// A feeder is a single-writer resource: the whole Feed call runs under a
// per-feeder mutex, so concurrent feeds on the same feeder serialize. The
// cached vision offset is only touched under that mutex.
type TapeFeeder struct {
	mu sync.Mutex

	id         string
	feedStart  units.Location
	feedEnd    units.Location
	feedRate   *units.Length
	actuatorID string
	vision     *vision.Config

	// visionOffset is nil until the first successful vision pass, then
	// refreshed by every vision feed. Cleared only by ResetVisionOffset.
	visionOffset *units.Location

	finder OffsetSource

	listenerMu sync.Mutex
	listeners  map[int]func(Change)
	nextToken  int
}

// NewTapeFeeder returns a feeder with vision disabled and no feed rate or
// actuator configured.
func NewTapeFeeder(id string) *TapeFeeder {
	return &TapeFeeder{
		id:        id,
		feedStart: units.NewLocation(units.Millimeters, 0, 0, 0, 0),
		feedEnd:   units.NewLocation(units.Millimeters, 0, 0, 0, 0),
		vision:    &vision.Config{},
		finder:    vision.NewOffsetFinder(),
		listeners: make(map[int]func(Change)),
	}
}

// ID returns the feeder's identifier.
func (f *TapeFeeder) ID() string { return f.id }

func (f *TapeFeeder) String() string {
	return fmt.Sprintf("tape feeder %s", f.id)
}

// CanFeedForHead reports whether this feeder can service the given head.
func (f *TapeFeeder) CanFeedForHead(head spi.Head) bool {
	return true
}

// SetOffsetSource replaces the vision pipeline used for offset computation.
func (f *TapeFeeder) SetOffsetSource(s OffsetSource) {
	f.mu.Lock()
	f.finder = s
	f.mu.Unlock()
}

// ResetVisionOffset invalidates the cached vision offset. The next vision
// feed runs a pre-flight pass again before moving. The feeder never calls
// this itself; it is the external invalidation hook for tape changes and
// manual recovery.
func (f *TapeFeeder) ResetVisionOffset() {
	f.mu.Lock()
	f.visionOffset = nil
	f.mu.Unlock()
}

// Feed advances the tape by one pitch and returns the vision-corrected pick
// location in the machine's native units.
//
// Configuration errors (missing feed rate or actuator) surface before any
// motion. Motion and vision failures abort the remaining sequence and are
// wrapped in a *StepError naming the failed step; nothing is retried or
// rolled back.
//
// When the post-feed vision pass fails, the physical feed has already
// happened and the returned location is still the valid corrected pick
// location; only the cache refresh is lost. Callers that can proceed without
// a warm cache may use the location alongside the error.
func (f *TapeFeeder) Feed(head spi.Head, pickLocation units.Location) (units.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slog.Debug("feeder: feed", "feeder", f.id, "head", head.ID(), "pick", pickLocation)

	if f.feedRate == nil {
		return units.Location{}, ErrMissingFeedRate
	}
	if f.actuatorID == "" {
		return units.Location{}, ErrMissingActuatorID
	}
	actuator := head.Actuator(f.actuatorID)
	if actuator == nil {
		return units.Location{}, &ActuatorNotFoundError{ActuatorID: f.actuatorID, HeadID: head.ID()}
	}

	native := head.Machine().NativeUnits()
	pick := pickLocation.ConvertToUnits(native)
	feedStart := f.feedStart.ConvertToUnits(native)
	feedEnd := f.feedEnd.ConvertToUnits(native)
	actuatorOffsets := actuator.Location().ConvertToUnits(native)
	feedRate := f.feedRate.ConvertToUnits(native)

	slog.Debug("feeder: normalized inputs",
		"pick", pick, "feedStart", feedStart, "feedEnd", feedEnd,
		"actuatorOffsets", actuatorOffsets, "feedRate", feedRate)

	if err := head.MoveToSafeZ(); err != nil {
		return units.Location{}, &StepError{Step: StepSafeZ, Err: err}
	}

	var offsetX, offsetY float64
	if f.vision.Enabled {
		if f.visionOffset == nil {
			// First vision feed, or the offset was invalidated. Get an
			// offset now, complete the feed, and compute a fresh one at
			// the end. Front-loading this lets every later call go
			// straight to the feed stroke.
			slog.Debug("feeder: first feed, running vision pre-flight", "feeder", f.id)
			off, err := f.finder.ComputeOffset(head, pick, f.vision)
			if err != nil {
				return units.Location{}, &StepError{Step: StepVisionPreflight, Err: err}
			}
			f.visionOffset = &off
		}
		offsetX = f.visionOffset.X
		offsetY = f.visionOffset.Y
		slog.Debug("feeder: applying vision offset", "feeder", f.id, "offset", *f.visionOffset)
	}

	// Subtract the actuator's mounting offset rather than adding it: the
	// goal is to position the pin over the hole, not to express the hole
	// relative to the pin.
	feedStart = feedStart.Subtract(actuatorOffsets)
	feedEnd = feedEnd.Subtract(actuatorOffsets)

	// Position the pin above the feed hole, vision-corrected, at current Z.
	if err := head.MoveTo(feedStart.X-offsetX, feedStart.Y-offsetY, head.Z(), head.Rotation()); err != nil {
		return units.Location{}, &StepError{Step: StepPositionPin, Err: err}
	}

	if err := actuator.Actuate(true); err != nil {
		return units.Location{}, &StepError{Step: StepExtendPin, Err: err}
	}

	// Insert the pin into the hole. No offset correction on Z.
	if err := head.MoveTo(head.X(), head.Y(), feedStart.Z, head.Rotation()); err != nil {
		return units.Location{}, &StepError{Step: StepInsertPin, Err: err}
	}

	// Drag the tape. The one caller-controlled velocity in the sequence:
	// drag speed affects mechanical reliability.
	if err := head.MoveToAtRate(feedEnd.X-offsetX, feedEnd.Y-offsetY, feedEnd.Z, head.Rotation(), feedRate.Value); err != nil {
		return units.Location{}, &StepError{Step: StepDragTape, Err: err}
	}

	if err := head.MoveToSafeZ(); err != nil {
		return units.Location{}, &StepError{Step: StepRetractSafeZ, Err: err}
	}

	if err := actuator.Actuate(false); err != nil {
		return units.Location{}, &StepError{Step: StepRetractPin, Err: err}
	}

	corrected := units.NewLocation(pick.Units, pick.X-offsetX, pick.Y-offsetY, pick.Z, pick.Rotation)
	slog.Debug("feeder: corrected pick location", "feeder", f.id, "pick", corrected)

	if f.vision.Enabled {
		// Prepare the offset for the next feed. The physical feed already
		// happened; on failure the corrected location above is still
		// valid, only the cache refresh is lost.
		off, err := f.finder.ComputeOffset(head, corrected, f.vision)
		if err != nil {
			return corrected, &StepError{Step: StepVisionPostFeed, Err: err}
		}
		f.visionOffset = &off
	}

	return corrected, nil
}
