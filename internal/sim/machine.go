package sim

import (
	"fmt"
	"sync"

	"github.com/openplacer/tapefeeder/internal/spi"
	"github.com/openplacer/tapefeeder/internal/units"
	"github.com/openplacer/tapefeeder/internal/vision"
)

// Move records one issued head motion for later inspection.
type Move struct {
	Kind     string // "safe-z", "move", "move-at-rate"
	X, Y, Z  float64
	Rotation float64
	Rate     float64
}

// Machine is the in-memory machine aggregate. Native units are millimeters.
type Machine struct {
	head    *Head
	cameras []spi.Camera
}

// NewMachine builds a machine with one head ("h1"), a pin actuator ("pin")
// offset 15mm in X from the head origin, and a downward camera ("top") with
// 0.1mm/pixel calibration running the template matcher over its own frames.
func NewMachine() *Machine {
	m := &Machine{}
	head := &Head{
		id:      "h1",
		machine: m,
		safeZ:   20,
		actuators: map[string]*Actuator{
			"pin": {id: "pin", location: units.NewLocation(units.Millimeters, 15, 0, 0, 0)},
		},
	}
	cam := &Camera{
		id:       "top",
		head:     head,
		location: units.NewLocation(units.Millimeters, 0, 0, 0, 0),
		upp:      units.NewLocation(units.Millimeters, 0.1, 0.1, 0, 0),
		width:    100,
		height:   100,
	}
	cam.provider = vision.NewMatcher(cam)
	cam.provider.BlurRadius = 0 // synthetic frames carry no sensor noise

	m.head = head
	m.cameras = []spi.Camera{cam}
	return m
}

func (m *Machine) NativeUnits() units.LengthUnit { return units.Millimeters }
func (m *Machine) Cameras() []spi.Camera         { return m.cameras }

// Head returns the machine's single head.
func (m *Machine) Head() *Head { return m.head }

// Camera returns the machine's single camera.
func (m *Machine) Camera() *Camera { return m.cameras[0].(*Camera) }

// Head is the simulated toolhead. All moves succeed instantly.
type Head struct {
	mu        sync.Mutex
	id        string
	machine   *Machine
	x, y, z   float64
	rot       float64
	safeZ     float64
	moves     []Move
	actuators map[string]*Actuator
}

func (h *Head) ID() string           { return h.id }
func (h *Head) Machine() spi.Machine { return h.machine }

func (h *Head) MoveToSafeZ() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.z = h.safeZ
	h.moves = append(h.moves, Move{Kind: "safe-z", X: h.x, Y: h.y, Z: h.z, Rotation: h.rot})
	return nil
}

func (h *Head) MoveTo(x, y, z, rotation float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.x, h.y, h.z, h.rot = x, y, z, rotation
	h.moves = append(h.moves, Move{Kind: "move", X: x, Y: y, Z: z, Rotation: rotation})
	return nil
}

func (h *Head) MoveToAtRate(x, y, z, rotation, rate float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.x, h.y, h.z, h.rot = x, y, z, rotation
	h.moves = append(h.moves, Move{Kind: "move-at-rate", X: x, Y: y, Z: z, Rotation: rotation, Rate: rate})
	return nil
}

func (h *Head) X() float64        { h.mu.Lock(); defer h.mu.Unlock(); return h.x }
func (h *Head) Y() float64        { h.mu.Lock(); defer h.mu.Unlock(); return h.y }
func (h *Head) Z() float64        { h.mu.Lock(); defer h.mu.Unlock(); return h.z }
func (h *Head) Rotation() float64 { h.mu.Lock(); defer h.mu.Unlock(); return h.rot }

func (h *Head) Actuator(id string) spi.Actuator {
	if a, ok := h.actuators[id]; ok {
		return a
	}
	return nil
}

// Moves returns a copy of every motion issued so far.
func (h *Head) Moves() []Move {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Move, len(h.moves))
	copy(out, h.moves)
	return out
}

func (h *Head) String() string { return fmt.Sprintf("sim head %s", h.id) }

// Actuator is the simulated pin actuator.
type Actuator struct {
	mu       sync.Mutex
	id       string
	location units.Location
	extended bool
	toggles  []bool
}

func (a *Actuator) ID() string { return a.id }

func (a *Actuator) Actuate(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.extended = on
	a.toggles = append(a.toggles, on)
	return nil
}

func (a *Actuator) Location() units.Location { return a.location }

// Extended reports the current pin state.
func (a *Actuator) Extended() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.extended
}

// Toggles returns every actuation issued so far.
func (a *Actuator) Toggles() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]bool, len(a.toggles))
	copy(out, a.toggles)
	return out
}
