package xr

import "fmt"

// SessionState is the runtime-reported lifecycle state of a session.
// The numeric order matters: every state up to StateFocused is visible,
// every state from StateStopping on ends the session.
type SessionState uint32

const (
	StateUnknown SessionState = iota
	StateIdle
	StateReady
	StateSynchronized
	StateVisible
	StateFocused
	StateStopping
	StateLossPending
	StateExiting
)

var stateNames = [...]string{
	StateUnknown:      "unknown",
	StateIdle:         "idle",
	StateReady:        "ready",
	StateSynchronized: "synchronized",
	StateVisible:      "visible",
	StateFocused:      "focused",
	StateStopping:     "stopping",
	StateLossPending:  "loss-pending",
	StateExiting:      "exiting",
}

func (s SessionState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// Visible reports whether frames submitted in this state may be shown.
func (s SessionState) Visible() bool { return s <= StateFocused }

// Ending reports whether the session must be ended in this state.
func (s SessionState) Ending() bool { return s >= StateStopping }

// ParseSessionState returns the state named s, as printed by String.
func ParseSessionState(s string) (SessionState, error) {
	for i, name := range stateNames {
		if name == s {
			return SessionState(i), nil
		}
	}
	return StateUnknown, fmt.Errorf("xr: unknown session state %q", s)
}
