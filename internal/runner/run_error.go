package runner

import (
	"errors"
	"fmt"
)

// Phases of a run, used as the failure label.
const (
	PhaseConfig    = "config"
	PhaseConnect   = "connect"
	PhaseCollect   = "collect"
	PhaseInventory = "inventory"
	PhaseEncode    = "encode"
	PhaseWrite     = "write"
)

// RunError reports the phase in which a run aborted.
type RunError struct {
	Phase string
	Host  string
	Err   error
}

func (e *RunError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Host, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func wrapRun(phase, host string, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{Phase: phase, Host: host, Err: err}
}

// ExitCode maps the result of Run to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// PhaseOf returns the phase of a *RunError in err's chain, or "".
func PhaseOf(err error) string {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Phase
	}
	return ""
}
