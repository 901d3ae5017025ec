// Package config persists feeder configuration as XML plus template-image
// side files.
//
// The XML document carries the feed stroke locations, feed rate, actuator
// id, and the vision sub-configuration. The template raster itself is not
// embedded: it lives as a PNG in a resource directory, referenced by name
// from the document, loaded lazily on first use and re-encoded only when the
// in-memory raster was actually replaced.
package config
