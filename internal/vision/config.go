package vision

import (
	"image"
	"sync"

	"github.com/openplacer/tapefeeder/internal/units"
)

// Region is a rectangular area of interest in pixel space: the sub-region
// of a captured frame searched for template matches.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Config is the vision sub-configuration of a feeder.
//
// The template raster is loaded lazily: persistence binds a loader with
// BindTemplate and the image is decoded on first Template() access. A dirty
// flag tracks whether the raster has been replaced since it was last
// persisted, so storage only re-encodes when something actually changed.
type Config struct {
	Enabled bool

	// TemplateName is the resource file name the template raster is
	// persisted under. Empty until first persisted.
	TemplateName string

	AreaOfInterest Region

	// Physical locations of the template's corners, used by configuration
	// tooling to relate the raster to machine space.
	TemplateTopLeft     units.Location
	TemplateBottomRight units.Location

	mu       sync.Mutex
	template image.Image
	load     func() (image.Image, error)
	dirty    bool
}

// BindTemplate registers a lazy loader for the template raster. The loader
// runs at most once, on the first Template call that finds no raster in
// memory.
func (c *Config) BindTemplate(load func() (image.Image, error)) {
	c.mu.Lock()
	c.load = load
	c.mu.Unlock()
}

// Template returns the template raster, invoking the bound loader if the
// raster has not been loaded yet. Returns nil with no error when no raster
// is configured at all.
func (c *Config) Template() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.template != nil || c.load == nil {
		return c.template, nil
	}
	img, err := c.load()
	if err != nil {
		return nil, err
	}
	c.template = img
	c.load = nil
	return c.template, nil
}

// SetTemplate replaces the template raster and marks it dirty so the next
// persist re-encodes it. Setting the identical image is a no-op.
func (c *Config) SetTemplate(img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if img == c.template {
		return
	}
	c.template = img
	c.load = nil
	c.dirty = true
}

// TemplateDirty reports whether the raster changed since the last persist.
func (c *Config) TemplateDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// ClearTemplateDirty marks the raster as persisted.
func (c *Config) ClearTemplateDirty() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}
