package horizon

import (
	"fmt"
	"strings"
)

// Support is the set of feet in contact during one node.
type Support int

const (
	DoubleSupport Support = iota
	// SingleSupportLeft keeps the left foot on the ground while the right
	// foot swings.
	SingleSupportLeft
	SingleSupportRight
)

func (s Support) String() string {
	switch s {
	case DoubleSupport:
		return "DS"
	case SingleSupportLeft:
		return "SSL"
	case SingleSupportRight:
		return "SSR"
	}
	return fmt.Sprintf("Support(%d)", int(s))
}

// LeftInContact reports whether the left foot is constrained.
func (s Support) LeftInContact() bool { return s != SingleSupportRight }

// RightInContact reports whether the right foot is constrained.
func (s Support) RightInContact() bool { return s != SingleSupportLeft }

func ParseSupport(value string) (Support, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DS", "DOUBLE_SUPPORT":
		return DoubleSupport, nil
	case "SSL", "SINGLE_SUPPORT_LEFT":
		return SingleSupportLeft, nil
	case "SSR", "SINGLE_SUPPORT_RIGHT":
		return SingleSupportRight, nil
	}
	return DoubleSupport, fmt.Errorf("unknown support phase %q", value)
}
