package racunis

import "fmt"

// State is the lifecycle state of a Job.
type State uint8

const (
	StateUnknown State = iota
	StateWaiting
	StateActive
	StateCompleted
	StateFailed
)

var stateToString = map[State]string{
	StateWaiting:   "waiting",
	StateActive:    "active",
	StateCompleted: "completed",
	StateFailed:    "failed",
}

var stateFromString = map[string]State{
	"waiting":   StateWaiting,
	"active":    StateActive,
	"completed": StateCompleted,
	"failed":    StateFailed,
}

// String returns the lowercase wire form of the state, or "unknown".
func (s State) String() string {
	if str, ok := stateToString[s]; ok {
		return str
	}
	return "unknown"
}

// ParseState parses the lowercase wire form of a state produced by String.
func ParseState(s string) (State, error) {
	if state, ok := stateFromString[s]; ok {
		return state, nil
	}
	return StateUnknown, fmt.Errorf("racunis: unknown job state %q", s)
}

func (s State) MarshalText() ([]byte, error) {
	if _, ok := stateToString[s]; !ok {
		return nil, fmt.Errorf("racunis: cannot marshal unknown job state %d", s)
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	state, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// TerminalStates lists the states from which a Job never transitions again.
var TerminalStates = []State{StateCompleted, StateFailed}

func (s State) terminal() bool {
	return s == StateCompleted || s == StateFailed
}
