package feeder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openplacer/tapefeeder/internal/spi"
	"github.com/openplacer/tapefeeder/internal/units"
	"github.com/openplacer/tapefeeder/internal/vision"
)

type fakeMachine struct {
	cameras []spi.Camera
}

func (m *fakeMachine) NativeUnits() units.LengthUnit { return units.Millimeters }
func (m *fakeMachine) Cameras() []spi.Camera         { return m.cameras }

type move struct {
	kind         string // "safe-z", "move", "move-at-rate"
	x, y, z, rot float64
	rate         float64
}

type fakeHead struct {
	id        string
	machine   *fakeMachine
	x, y, z   float64
	rot       float64
	safeZ     float64
	moves     []move
	actuators map[string]spi.Actuator
	failKind  string
}

func newFakeHead() *fakeHead {
	return &fakeHead{
		id:        "h1",
		machine:   &fakeMachine{},
		safeZ:     10,
		actuators: make(map[string]spi.Actuator),
	}
}

func (h *fakeHead) ID() string           { return h.id }
func (h *fakeHead) Machine() spi.Machine { return h.machine }

func (h *fakeHead) MoveToSafeZ() error {
	if h.failKind == "safe-z" {
		return errors.New("simulated safe-z failure")
	}
	h.z = h.safeZ
	h.moves = append(h.moves, move{kind: "safe-z", x: h.x, y: h.y, z: h.z, rot: h.rot})
	return nil
}

func (h *fakeHead) MoveTo(x, y, z, rotation float64) error {
	if h.failKind == "move" {
		return errors.New("simulated move failure")
	}
	h.x, h.y, h.z, h.rot = x, y, z, rotation
	h.moves = append(h.moves, move{kind: "move", x: x, y: y, z: z, rot: rotation})
	return nil
}

func (h *fakeHead) MoveToAtRate(x, y, z, rotation, rate float64) error {
	if h.failKind == "move-at-rate" {
		return errors.New("simulated drag failure")
	}
	h.x, h.y, h.z, h.rot = x, y, z, rotation
	h.moves = append(h.moves, move{kind: "move-at-rate", x: x, y: y, z: z, rot: rotation, rate: rate})
	return nil
}

func (h *fakeHead) X() float64        { return h.x }
func (h *fakeHead) Y() float64        { return h.y }
func (h *fakeHead) Z() float64        { return h.z }
func (h *fakeHead) Rotation() float64 { return h.rot }

func (h *fakeHead) Actuator(id string) spi.Actuator { return h.actuators[id] }

type fakeActuator struct {
	id     string
	loc    units.Location
	states []bool
}

func (a *fakeActuator) ID() string               { return a.id }
func (a *fakeActuator) Actuate(on bool) error    { a.states = append(a.states, on); return nil }
func (a *fakeActuator) Location() units.Location { return a.loc }

// stubOffsetSource records calls and hands out canned offsets.
type stubOffsetSource struct {
	offset  units.Location
	targets []units.Location
	errAt   int // 1-based call number that fails; 0 = never
	calls   int
}

func (s *stubOffsetSource) ComputeOffset(head spi.Head, target units.Location, cfg *vision.Config) (units.Location, error) {
	s.calls++
	s.targets = append(s.targets, target)
	if s.errAt > 0 && s.calls >= s.errAt {
		return units.Location{}, errors.New("simulated vision failure")
	}
	return s.offset, nil
}

func mm(x, y, z, rot float64) units.Location {
	return units.NewLocation(units.Millimeters, x, y, z, rot)
}

func newConfiguredFeeder() (*TapeFeeder, *fakeHead, *fakeActuator) {
	head := newFakeHead()
	pin := &fakeActuator{id: "pin", loc: mm(1, 1, 0, 0)}
	head.actuators["pin"] = pin

	f := NewTapeFeeder("f1")
	f.SetFeedStartLocation(mm(10, 20, 5, 0))
	f.SetFeedEndLocation(mm(10, 10, 5, 0))
	f.SetFeedRate(units.NewLength(5, units.Millimeters))
	f.SetActuatorID("pin")
	return f, head, pin
}

func TestFeedMissingFeedRate(t *testing.T) {
	head := newFakeHead()
	f := NewTapeFeeder("f1")
	f.SetActuatorID("pin")

	_, err := f.Feed(head, mm(10, 15, 5, 0))
	require.ErrorIs(t, err, ErrMissingFeedRate)
	assert.Empty(t, head.moves, "no moves may be issued before configuration validation")
}

func TestFeedMissingActuatorID(t *testing.T) {
	head := newFakeHead()
	f := NewTapeFeeder("f1")
	f.SetFeedRate(units.NewLength(5, units.Millimeters))

	_, err := f.Feed(head, mm(10, 15, 5, 0))
	require.ErrorIs(t, err, ErrMissingActuatorID)
	assert.Empty(t, head.moves)
}

func TestFeedActuatorNotFound(t *testing.T) {
	head := newFakeHead()
	f := NewTapeFeeder("f1")
	f.SetFeedRate(units.NewLength(5, units.Millimeters))
	f.SetActuatorID("missing")

	_, err := f.Feed(head, mm(10, 15, 5, 0))
	var notFound *ActuatorNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ActuatorID)
	assert.Equal(t, "h1", notFound.HeadID)
	assert.Empty(t, head.moves)
}

func TestFeedSequenceVisionDisabled(t *testing.T) {
	f, head, pin := newConfiguredFeeder()

	pick := mm(10, 15, 5, 0)
	got, err := f.Feed(head, pick)
	require.NoError(t, err)

	// With vision disabled the pick location passes through unchanged.
	assert.Equal(t, pick, got)

	want := []move{
		{kind: "safe-z", z: 10},                              // raise
		{kind: "move", x: 9, y: 19, z: 10},                   // pin over hole, actuator offset applied
		{kind: "move", x: 9, y: 19, z: 5},                    // insert pin
		{kind: "move-at-rate", x: 9, y: 9, z: 5, rate: 5},    // drag stroke
		{kind: "safe-z", x: 9, y: 9, z: 10},                  // raise
	}
	require.Len(t, head.moves, len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, head.moves[i].kind, "move %d kind", i)
		assert.InDelta(t, w.x, head.moves[i].x, 1e-9, "move %d x", i)
		assert.InDelta(t, w.y, head.moves[i].y, 1e-9, "move %d y", i)
		assert.InDelta(t, w.z, head.moves[i].z, 1e-9, "move %d z", i)
		assert.InDelta(t, w.rate, head.moves[i].rate, 1e-9, "move %d rate", i)
	}

	assert.Equal(t, []bool{true, false}, pin.states, "pin extends after positioning, retracts after safe-z")
}

func TestFeedVisionDisabledCacheUntouched(t *testing.T) {
	f, head, _ := newConfiguredFeeder()
	stub := &stubOffsetSource{offset: mm(1, 1, 0, 0)}
	f.SetOffsetSource(stub)

	_, err := f.Feed(head, mm(10, 15, 5, 0))
	require.NoError(t, err)
	assert.Zero(t, stub.calls, "vision pipeline must not run when vision is disabled")
	assert.Nil(t, f.visionOffset)
}

func TestFeedVisionPreflightOnce(t *testing.T) {
	f, head, _ := newConfiguredFeeder()
	f.Vision().Enabled = true
	stub := &stubOffsetSource{offset: mm(0.5, -0.25, 0, 0)}
	f.SetOffsetSource(stub)

	pick := mm(10, 15, 5, 0)
	got, err := f.Feed(head, pick)
	require.NoError(t, err)

	// Pre-flight plus post-feed pass on the first feed.
	assert.Equal(t, 2, stub.calls)
	// Pre-flight runs against the normalized pick location.
	assert.Equal(t, pick, stub.targets[0])

	// Offset is subtracted from the pick location; Z and rotation untouched.
	assert.InDelta(t, 9.5, got.X, 1e-9)
	assert.InDelta(t, 15.25, got.Y, 1e-9)
	assert.InDelta(t, 5.0, got.Z, 1e-9)
	// Post-feed pass targets the corrected pick location.
	assert.Equal(t, got, stub.targets[1])

	// The vision-corrected drag stroke: actuator offset and vision offset
	// both applied.
	drag := head.moves[3]
	require.Equal(t, "move-at-rate", drag.kind)
	assert.InDelta(t, 8.5, drag.x, 1e-9)
	assert.InDelta(t, 9.25, drag.y, 1e-9)

	// Second feed reuses the cache: only the post-feed pass runs.
	_, err = f.Feed(head, pick)
	require.NoError(t, err)
	assert.Equal(t, 3, stub.calls, "pre-flight fires at most once per feeder lifetime")
}

func TestResetVisionOffsetForcesPreflight(t *testing.T) {
	f, head, _ := newConfiguredFeeder()
	f.Vision().Enabled = true
	stub := &stubOffsetSource{offset: mm(0.1, 0.1, 0, 0)}
	f.SetOffsetSource(stub)

	_, err := f.Feed(head, mm(10, 15, 5, 0))
	require.NoError(t, err)
	require.Equal(t, 2, stub.calls)

	f.ResetVisionOffset()

	_, err = f.Feed(head, mm(10, 15, 5, 0))
	require.NoError(t, err)
	assert.Equal(t, 4, stub.calls, "reset re-arms the pre-flight pass")
}

func TestFeedPostVisionFailureStillReturnsLocation(t *testing.T) {
	f, head, _ := newConfiguredFeeder()
	f.Vision().Enabled = true
	stub := &stubOffsetSource{offset: mm(0.5, 0, 0, 0), errAt: 2}
	f.SetOffsetSource(stub)

	got, err := f.Feed(head, mm(10, 15, 5, 0))

	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, StepVisionPostFeed, step.Step)

	// The feed already happened; the corrected location is still valid.
	assert.InDelta(t, 9.5, got.X, 1e-9)
	assert.InDelta(t, 15.0, got.Y, 1e-9)

	// Cache keeps the pre-flight offset; the failed refresh is not applied.
	require.NotNil(t, f.visionOffset)
	assert.InDelta(t, 0.5, f.visionOffset.X, 1e-9)
}

func TestFeedPreflightFailureAborts(t *testing.T) {
	f, head, pin := newConfiguredFeeder()
	f.Vision().Enabled = true
	stub := &stubOffsetSource{errAt: 1}
	f.SetOffsetSource(stub)

	_, err := f.Feed(head, mm(10, 15, 5, 0))

	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, StepVisionPreflight, step.Step)
	assert.Empty(t, pin.states, "no actuation after a failed pre-flight")
}

func TestFeedMotionFailureNamesStep(t *testing.T) {
	f, head, pin := newConfiguredFeeder()
	head.failKind = "move-at-rate"

	_, err := f.Feed(head, mm(10, 15, 5, 0))

	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, StepDragTape, step.Step)
	// The pin was extended and never retracted: manual-recovery condition.
	assert.Equal(t, []bool{true}, pin.states)
}

func TestFeedNormalizesConfiguredUnits(t *testing.T) {
	f, head, pin := newConfiguredFeeder()
	pin.loc = mm(0, 0, 0, 0)
	f.SetFeedStartLocation(units.NewLocation(units.Inches, 1, 1, 0, 0))
	f.SetFeedEndLocation(units.NewLocation(units.Inches, 1, 0.5, 0, 0))
	f.SetFeedRate(units.NewLength(1, units.Inches))

	_, err := f.Feed(head, mm(10, 15, 5, 0))
	require.NoError(t, err)

	pos := head.moves[1]
	assert.InDelta(t, 25.4, pos.x, 1e-9)
	assert.InDelta(t, 25.4, pos.y, 1e-9)

	drag := head.moves[3]
	assert.InDelta(t, 12.7, drag.y, 1e-9)
	assert.InDelta(t, 25.4, drag.rate, 1e-9, "feed rate converted to native units")
}

func TestOnChangeNotification(t *testing.T) {
	f := NewTapeFeeder("f1")

	var changes []Change
	cancel := f.OnChange(func(c Change) { changes = append(changes, c) })

	f.SetActuatorID("pin")
	require.Len(t, changes, 1)
	assert.Equal(t, "actuatorId", changes[0].Property)
	assert.Equal(t, "", changes[0].Old)
	assert.Equal(t, "pin", changes[0].New)

	f.SetFeedRate(units.NewLength(5, units.Millimeters))
	require.Len(t, changes, 2)
	assert.Equal(t, "feedRate", changes[1].Property)

	cancel()
	f.SetActuatorID("other")
	assert.Len(t, changes, 2, "cancelled listener receives no further changes")
}

func TestCanFeedForHead(t *testing.T) {
	f := NewTapeFeeder("f1")
	assert.True(t, f.CanFeedForHead(newFakeHead()))
}
