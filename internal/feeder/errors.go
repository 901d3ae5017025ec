package feeder

import (
	"errors"
	"fmt"
)

// Configuration errors, surfaced before any physical motion occurs.
var (
	ErrMissingFeedRate    = errors.New("feeder: no feed rate configured")
	ErrMissingActuatorID  = errors.New("feeder: no actuator id configured")
)

// ActuatorNotFoundError reports that the configured actuator id does not
// resolve on the head a feed was requested for.
type ActuatorNotFoundError struct {
	ActuatorID string
	HeadID     string
}

func (e *ActuatorNotFoundError) Error() string {
	return fmt.Sprintf("feeder: no actuator with id %q on head %q", e.ActuatorID, e.HeadID)
}

// Feed sequence step names carried by StepError.
const (
	StepSafeZ           = "safe-z"
	StepVisionPreflight = "vision-pre-flight"
	StepPositionPin     = "position-pin"
	StepExtendPin       = "extend-pin"
	StepInsertPin       = "insert-pin"
	StepDragTape        = "drag-tape"
	StepRetractSafeZ    = "retract-safe-z"
	StepRetractPin      = "retract-pin"
	StepVisionPostFeed  = "vision-post-feed"
)

// StepError wraps a failure inside the feed sequence with the name of the
// step that was being executed. Feeds are not rolled back; the step name
// tells the operator what physical state the mechanism was likely left in.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("feeder: feed failed at %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
