package health

import (
	"fmt"
	"strings"
)

// Comparator decides whether a value breaches a level.
type Comparator interface {
	Breached(value, level float64) bool
	Name() string
}

type gte struct{}

func (gte) Breached(value, level float64) bool { return value >= level }
func (gte) Name() string                       { return "gte" }

type lte struct{}

func (lte) Breached(value, level float64) bool { return value <= level }
func (lte) Name() string                       { return "lte" }

var (
	// GTE breaches when the value reaches the level from below, e.g. percent full.
	GTE Comparator = gte{}
	// LTE breaches when the value falls to the level, e.g. days remaining.
	LTE Comparator = lte{}
)

// ParseComparator returns the comparator for "gte" or "lte".
func ParseComparator(name string) (Comparator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gte", ">=":
		return GTE, nil
	case "lte", "<=":
		return LTE, nil
	default:
		return nil, fmt.Errorf("unknown comparator %q", name)
	}
}

// Levels is a warn/crit threshold pair.
type Levels struct {
	Warn float64 `json:"warn" yaml:"warn"`
	Crit float64 `json:"crit" yaml:"crit"`
}

// Evaluate applies levels to value. Crit is checked before warn.
func Evaluate(value float64, levels Levels, cmp Comparator) State {
	if cmp == nil {
		cmp = GTE
	}
	if cmp.Breached(value, levels.Crit) {
		return StateCrit
	}
	if cmp.Breached(value, levels.Warn) {
		return StateWarn
	}
	return StateOK
}
