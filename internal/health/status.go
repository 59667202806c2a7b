package health

import "strings"

// StatusTable maps vendor status strings to states for one entity class.
// Statuses absent from the table map to UNKNOWN.
type StatusTable struct {
	name       string
	states     map[string]State
	suppressed map[string]struct{}
}

// Classify maps a vendor status. The second return value is false when the
// entity must not produce a result at all.
func (t StatusTable) Classify(status string) (State, bool) {
	key := strings.ToLower(strings.TrimSpace(status))
	if _, ok := t.suppressed[key]; ok {
		return StateUnknown, false
	}
	if state, ok := t.states[key]; ok {
		return state, true
	}
	return StateUnknown, true
}

// Suppressed reports whether status hides the entity.
func (t StatusTable) Suppressed(status string) bool {
	_, ok := t.Classify(status)
	return !ok
}

// Name identifies the entity class.
func (t StatusTable) Name() string {
	return t.name
}

// with returns a copy of t named name with extra mappings applied on top.
func (t StatusTable) with(name string, extra map[string]State) StatusTable {
	states := make(map[string]State, len(t.states)+len(extra))
	for k, v := range t.states {
		states[k] = v
	}
	for k, v := range extra {
		states[k] = v
	}
	return StatusTable{name: name, states: states, suppressed: t.suppressed}
}

var suppressedStatuses = map[string]struct{}{
	"unused":        {},
	"not_installed": {},
}

// Components covers hardware components and is the base for the other tables.
var Components = StatusTable{
	name: "component",
	states: map[string]State{
		"healthy":      StateOK,
		"ok":           StateOK,
		"identifying":  StateOK,
		"unhealthy":    StateWarn,
		"recovering":   StateWarn,
		"unadmitted":   StateWarn,
		"unrecognized": StateWarn,
		"updating":     StateWarn,
		"warn low":     StateWarn,
		"warn high":    StateWarn,
		"failed":       StateCrit,
		"missing":      StateCrit,
		"alarm low":    StateCrit,
		"alarm high":   StateCrit,
		"critical":     StateCrit,
	},
	suppressed: suppressedStatuses,
}

// Drives treats an empty bay as healthy.
var Drives = Components.with("drive", map[string]State{"empty": StateOK})

// PortReadings covers transceiver readings on physical ports.
var PortReadings = Components.with("port", map[string]State{"empty": StateOK})

// BladeComponents covers FlashBlade hardware, which reports a narrower set
// of statuses than FlashArray.
var BladeComponents = StatusTable{
	name: "blade component",
	states: map[string]State{
		"healthy":     StateOK,
		"identifying": StateOK,
		"unhealthy":   StateWarn,
		"critical":    StateCrit,
	},
	suppressed: map[string]struct{}{"unused": {}},
}

// ArrayConnections covers replication peer connections.
var ArrayConnections = StatusTable{
	name: "array connection",
	states: map[string]State{
		"connected":           StateOK,
		"connecting":          StateWarn,
		"partially_connected": StateWarn,
		"unbalanced":          StateWarn,
	},
	suppressed: map[string]struct{}{},
}

// FoldReadings folds a composite entity's readings into one state.
// Suppressed readings are ignored and a raised flag forces at least WARN.
func FoldReadings(table StatusTable, statuses []string, flags []bool) State {
	state := StateOK
	for _, status := range statuses {
		reading, ok := table.Classify(status)
		if !ok {
			continue
		}
		state = worsenState(state, reading)
	}
	for _, flagged := range flags {
		if flagged {
			state = worsenState(state, StateWarn)
		}
	}
	return state
}
