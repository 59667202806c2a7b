package health

import (
	"strings"
	"time"
)

// DefaultClosedAlertsLifetime is how long a closed alert stays visible.
const DefaultClosedAlertsLifetime = time.Hour

// Alert lifecycle states.
const (
	AlertOpen    = "open"
	AlertClosing = "closing"
	AlertClosed  = "closed"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
	SeverityHidden   = "hidden"
)

// Alert is the subset of an array alert needed to decide its visibility.
type Alert struct {
	Name     string
	Severity string
	State    string
	Updated  time.Time
}

// AlertPolicy controls which alerts become results.
type AlertPolicy struct {
	ClosedLifetime time.Duration
	Info           bool
	Warning        bool
	Critical       bool
	Hidden         bool
}

// DefaultAlertPolicy surfaces every severity except hidden.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		ClosedLifetime: DefaultClosedAlertsLifetime,
		Info:           true,
		Warning:        true,
		Critical:       true,
	}
}

// EvaluateAlert returns the state of alert and whether it is surfaced at all.
// Alerts with a severity outside the four known values are always surfaced.
func EvaluateAlert(alert Alert, policy AlertPolicy, now time.Time) (State, bool) {
	severity := strings.ToLower(alert.Severity)

	var state State
	switch strings.ToLower(alert.State) {
	case AlertOpen, AlertClosing:
		switch severity {
		case SeverityCritical:
			state = StateCrit
		case SeverityInfo, SeverityWarning, SeverityHidden:
			state = StateWarn
		default:
			state = StateUnknown
		}
	case AlertClosed:
		if now.Sub(alert.Updated) >= policy.ClosedLifetime {
			return StateOK, false
		}
		state = StateOK
	default:
		return StateUnknown, false
	}

	if !policy.allows(severity) {
		return state, false
	}
	return state, true
}

func (p AlertPolicy) allows(severity string) bool {
	switch severity {
	case SeverityInfo:
		return p.Info
	case SeverityWarning:
		return p.Warning
	case SeverityCritical:
		return p.Critical
	case SeverityHidden:
		return p.Hidden
	default:
		return true
	}
}
