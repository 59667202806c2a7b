package result

import (
	"errors"

	"github.com/nholik/flash-sentinel/internal/health"
)

// CheckResult is the outcome of one named service.
// Summary and Notice are alternative output modes; exactly one is set.
type CheckResult struct {
	State   health.State `json:"state"`
	Summary *string      `json:"summary,omitempty"`
	Details *string      `json:"details,omitempty"`
	Notice  *string      `json:"notice,omitempty"`
}

// Summary returns a summary-mode result.
func Summary(state health.State, summary string) CheckResult {
	return CheckResult{State: state, Summary: &summary}
}

// Notice returns a notice-mode result.
func Notice(state health.State, notice string) CheckResult {
	return CheckResult{State: state, Notice: &notice}
}

// WithDetails returns a copy of r carrying details. Empty details are dropped.
func (r CheckResult) WithDetails(details string) CheckResult {
	if details == "" {
		r.Details = nil
		return r
	}
	r.Details = &details
	return r
}

// Validate checks the output mode invariant.
func (r CheckResult) Validate() error {
	if !r.State.Valid() {
		return errors.New("invalid state")
	}
	if r.Summary == nil && r.Notice == nil {
		return errors.New("result needs a summary or a notice")
	}
	if r.Summary != nil && r.Notice != nil {
		return errors.New("result cannot carry both summary and notice")
	}
	return nil
}

// Pair is an optional (low, high) or (warn, crit) tuple.
type Pair [2]*float64

// NewPair returns a pair with both values set.
func NewPair(first, second float64) *Pair {
	return &Pair{&first, &second}
}

// Metric is a graphable value.
type Metric struct {
	Value      float64 `json:"value"`
	Levels     *Pair   `json:"levels,omitempty"`
	Boundaries *Pair   `json:"boundaries,omitempty"`
}

// ResultSet holds the services and metrics of one domain.
// Adding a name twice overwrites the earlier entry.
type ResultSet struct {
	Services map[string]CheckResult `json:"services"`
	Metrics  map[string]Metric      `json:"metrics"`
}

// NewResultSet returns an empty set.
func NewResultSet() *ResultSet {
	return &ResultSet{
		Services: make(map[string]CheckResult),
		Metrics:  make(map[string]Metric),
	}
}

// AddService stores a service result.
func (s *ResultSet) AddService(name string, r CheckResult) *ResultSet {
	if s.Services == nil {
		s.Services = make(map[string]CheckResult)
	}
	s.Services[name] = r
	return s
}

// AddMetric stores a metric.
func (s *ResultSet) AddMetric(name string, m Metric) *ResultSet {
	if s.Metrics == nil {
		s.Metrics = make(map[string]Metric)
	}
	s.Metrics[name] = m
	return s
}

// StateCounts tallies services by state.
func (s *ResultSet) StateCounts() map[health.State]int {
	counts := make(map[health.State]int, 4)
	if s == nil {
		return counts
	}
	for _, r := range s.Services {
		counts[r.State]++
	}
	return counts
}
