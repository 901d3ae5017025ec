package feeder

import (
	"github.com/openplacer/tapefeeder/internal/units"
	"github.com/openplacer/tapefeeder/internal/vision"
)

// Change describes a configuration mutation on a feeder. Observers such as
// persistence and UI refresh subscribe with OnChange; the feeder itself has
// no knowledge of them.
type Change struct {
	Property string
	Old      any
	New      any
}

// OnChange registers a listener invoked synchronously after every
// configuration mutation. The returned func cancels the subscription.
func (f *TapeFeeder) OnChange(fn func(Change)) (cancel func()) {
	f.listenerMu.Lock()
	token := f.nextToken
	f.nextToken++
	f.listeners[token] = fn
	f.listenerMu.Unlock()

	return func() {
		f.listenerMu.Lock()
		delete(f.listeners, token)
		f.listenerMu.Unlock()
	}
}

func (f *TapeFeeder) notify(property string, oldValue, newValue any) {
	f.listenerMu.Lock()
	fns := make([]func(Change), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.listenerMu.Unlock()

	for _, fn := range fns {
		fn(Change{Property: property, Old: oldValue, New: newValue})
	}
}

// FeedStartLocation returns the configured start of the feed stroke.
func (f *TapeFeeder) FeedStartLocation() units.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feedStart
}

// SetFeedStartLocation sets the start of the feed stroke.
func (f *TapeFeeder) SetFeedStartLocation(loc units.Location) {
	f.mu.Lock()
	old := f.feedStart
	f.feedStart = loc
	f.mu.Unlock()
	f.notify("feedStartLocation", old, loc)
}

// FeedEndLocation returns the configured end of the feed stroke.
func (f *TapeFeeder) FeedEndLocation() units.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feedEnd
}

// SetFeedEndLocation sets the end of the feed stroke.
func (f *TapeFeeder) SetFeedEndLocation(loc units.Location) {
	f.mu.Lock()
	old := f.feedEnd
	f.feedEnd = loc
	f.mu.Unlock()
	f.notify("feedEndLocation", old, loc)
}

// FeedRate returns the configured drag rate and whether one is set.
func (f *TapeFeeder) FeedRate() (units.Length, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feedRate == nil {
		return units.Length{}, false
	}
	return *f.feedRate, true
}

// SetFeedRate sets the tape drag rate (distance per second).
func (f *TapeFeeder) SetFeedRate(rate units.Length) {
	f.mu.Lock()
	var old any
	if f.feedRate != nil {
		old = *f.feedRate
	}
	f.feedRate = &rate
	f.mu.Unlock()
	f.notify("feedRate", old, rate)
}

// ActuatorID returns the id of the pin actuator, empty if unset.
func (f *TapeFeeder) ActuatorID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actuatorID
}

// SetActuatorID sets the id of the pin actuator to resolve on the feed head.
func (f *TapeFeeder) SetActuatorID(id string) {
	f.mu.Lock()
	old := f.actuatorID
	f.actuatorID = id
	f.mu.Unlock()
	f.notify("actuatorId", old, id)
}

// Vision returns the feeder's vision sub-configuration. The feeder owns it;
// mutate it in place.
func (f *TapeFeeder) Vision() *vision.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vision
}

// SetVision replaces the vision sub-configuration. A nil cfg installs an
// empty, disabled configuration.
func (f *TapeFeeder) SetVision(cfg *vision.Config) {
	if cfg == nil {
		cfg = &vision.Config{}
	}
	f.mu.Lock()
	old := f.vision
	f.vision = cfg
	f.mu.Unlock()
	f.notify("vision", old, cfg)
}
