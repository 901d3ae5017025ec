// Package feeder implements the vision-corrected tape feeder.
//
// A TapeFeeder advances component tape by one pitch per Feed call by driving
// a pin actuator through a fixed motion protocol, and optionally corrects
// for mechanical tape drift using a camera-based template match.
//
// # Vision Offsets
//
// The vision offset is the difference between where the tape feature was
// expected to be and where it actually is. Subtracting it from the pick
// location produces the correct pick location; likewise for the feed start
// and end locations.
//
// The offset is cached per feeder across Feed calls. Each feed applies the
// cached offset immediately and then runs a fresh vision pass at the end to
// prepare the offset for the next call, so the latency-sensitive feed stroke
// never waits on image analysis. Only the very first vision feed (or the
// first after ResetVisionOffset) runs a pre-flight pass before moving.
//
// # Physical Side Effects
//
// The feed sequence is a non-transactional series of physical actions. A
// mid-sequence failure aborts immediately with no rollback; the returned
// *StepError names the last attempted step so an operator knows what state
// the mechanism was likely left in (for example, pin still extended after a
// failed drag stroke).
package feeder
