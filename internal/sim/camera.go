package sim

import (
	"image"
	"image/color"
	"sync"

	"github.com/openplacer/tapefeeder/internal/spi"
	"github.com/openplacer/tapefeeder/internal/units"
	"github.com/openplacer/tapefeeder/internal/vision"
)

// featureSize is the rendered tape feature extent in pixels.
const featureSize = 8

// Camera is the simulated downward camera. Each Capture renders the frame
// the camera would see from the head's current pose: a light background with
// a dark square feature at the configured physical position.
type Camera struct {
	mu       sync.Mutex
	id       string
	head     *Head
	location units.Location
	upp      units.Location
	width    int
	height   int
	provider *vision.Matcher

	feature    units.Location
	hasFeature bool
}

func (c *Camera) ID() string                    { return c.id }
func (c *Camera) Head() spi.Head                { return c.head }
func (c *Camera) Location() units.Location      { return c.location }
func (c *Camera) UnitsPerPixel() units.Location { return c.upp }

func (c *Camera) VisionProvider() spi.VisionProvider { return c.provider }

// SetFeature places the tape feature at a physical location (native units).
// The Z and Rotation components are ignored; the feature is rendered
// wherever the camera is focused.
func (c *Camera) SetFeature(loc units.Location) {
	c.mu.Lock()
	c.feature = loc
	c.hasFeature = true
	c.mu.Unlock()
}

// ClearFeature removes the feature; captures render an empty frame.
func (c *Camera) ClearFeature() {
	c.mu.Lock()
	c.hasFeature = false
	c.mu.Unlock()
}

// Template returns the raster a feeder should match against: the feature as
// rendered, centered in a small patch with a 2px margin.
func (c *Camera) Template() *image.RGBA {
	tmpl := image.NewRGBA(image.Rect(0, 0, featureSize+4, featureSize+4))
	fillRect(tmpl, 0, 0, featureSize+4, featureSize+4, 245)
	fillRect(tmpl, 2, 2, featureSize, featureSize, 30)
	return tmpl
}

// Capture implements spi.Camera and vision.FrameSource.
func (c *Camera) Capture() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	fillRect(frame, 0, 0, c.width, c.height, 245)

	if !c.hasFeature {
		return frame, nil
	}

	// The camera center sits at head pose plus mounting offset. Project
	// the feature into pixel space; image Y grows downward while machine
	// Y grows upward.
	camX := c.head.X() + c.location.X
	camY := c.head.Y() + c.location.Y

	px := float64(c.width)/2 + (c.feature.X-camX)/c.upp.X
	py := float64(c.height)/2 - (c.feature.Y-camY)/c.upp.Y

	fillRect(frame,
		int(px)-featureSize/2, int(py)-featureSize/2,
		featureSize, featureSize, 30)
	return frame, nil
}

func fillRect(img *image.RGBA, x, y, w, h int, level uint8) {
	c := color.RGBA{level, level, level, 255}
	b := img.Bounds()
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			if image.Pt(xx, yy).In(b) {
				img.Set(xx, yy, c)
			}
		}
	}
}
