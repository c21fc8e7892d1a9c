package wbc

import (
	"fmt"
	"strings"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
)

type Support = horizon.Support

// Foot identifies one foot of the robot.
type Foot string

const (
	LeftFoot  Foot = "LF"
	RightFoot Foot = "RF"
)

// Mode selects the cycle the horizon is extended with.
type Mode int

const (
	Walking Mode = iota
	Standing
)

func (m Mode) String() string {
	if m == Standing {
		return "standing"
	}
	return "walking"
}

func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "walking", "walk":
		return Walking, nil
	case "standing", "stand":
		return Standing, nil
	}
	return Walking, fmt.Errorf("%w: unknown mode %q", dynamo.ErrInvalidArgument, value)
}

type EventKind int

const (
	// PhaseChange is a change of the support phase of node 0.
	PhaseChange EventKind = iota
	Takeoff
	Landing
)

func (k EventKind) String() string {
	switch k {
	case Takeoff:
		return "takeoff"
	case Landing:
		return "landing"
	default:
		return "phase"
	}
}

// Event is one entry of the controller log. Foot is empty for phase
// changes; From and To are only meaningful for them.
type Event struct {
	Iteration int
	Kind      EventKind
	Foot      Foot
	From, To  Support
}
