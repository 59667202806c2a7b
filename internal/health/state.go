package health

import (
	"encoding/json"
	"fmt"
)

// State is a monitoring state as understood by the monitoring host.
// The numeric values are part of the wire format.
type State int

const (
	StateOK      State = 0
	StateWarn    State = 1
	StateCrit    State = 2
	StateUnknown State = 3
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "OK"
	case StateWarn:
		return "WARN"
	case StateCrit:
		return "CRIT"
	case StateUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Valid reports whether s is one of the four defined states.
func (s State) Valid() bool {
	return s >= StateOK && s <= StateUnknown
}

// UnmarshalJSON accepts only the four defined numeric states.
func (s *State) UnmarshalJSON(data []byte) error {
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	state := State(value)
	if !state.Valid() {
		return fmt.Errorf("decode state: unknown value %d", value)
	}
	*s = state
	return nil
}

// Worst returns the more severe of the given states.
// CRIT outranks UNKNOWN, which outranks WARN.
func Worst(states ...State) State {
	worst := StateOK
	for _, state := range states {
		worst = worsenState(worst, state)
	}
	return worst
}

func worsenState(current, next State) State {
	if severity(next) > severity(current) {
		return next
	}
	return current
}

func severity(state State) int {
	switch state {
	case StateCrit:
		return 3
	case StateUnknown:
		return 2
	case StateWarn:
		return 1
	default:
		return 0
	}
}
