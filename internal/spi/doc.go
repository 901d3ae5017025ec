// Package spi defines the contracts of the machine hardware collaborators
// the feeder core drives: Machine, Head, Actuator, Camera, and the vision
// capability a camera may expose.
//
// All motion methods are blocking: they return once the physical motion has
// completed or failed, so a sequence of calls is a strictly ordered sequence
// of physical states. Timeout handling for individual moves is the
// implementation's responsibility; callers treat a returned error as an
// aborted sequence.
package spi
