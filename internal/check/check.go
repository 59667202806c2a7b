// Package check holds the monitoring-host side of the agent output: parsing
// a section line, discovering items and evaluating them.
package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nholik/flash-sentinel/internal/health"
	"github.com/nholik/flash-sentinel/internal/result"
	"github.com/nholik/flash-sentinel/internal/section"
)

// Parse decodes the payload line of a results section.
func Parse(line string) (section.Results, error) {
	return section.DecodeResults(line)
}

// ParseInventory decodes the payload line of an inventory section.
func ParseInventory(line string) (section.Inventory, error) {
	return section.DecodeInventory(line)
}

// Discover returns one item per service and per metric name across all
// domains, sorted and without duplicates.
func Discover(sec section.Results) []string {
	seen := make(map[string]struct{})
	for _, set := range sec {
		if set == nil {
			continue
		}
		for name := range set.Services {
			seen[name] = struct{}{}
		}
		for name := range set.Metrics {
			seen[name] = struct{}{}
		}
	}

	items := make([]string, 0, len(seen))
	for name := range seen {
		items = append(items, name)
	}
	sort.Strings(items)
	return items
}

// Output is a rendered service result. Exactly one of Summary and Notice
// is meaningful, as reported by IsSummary.
type Output struct {
	State   health.State
	Summary string
	Notice  string
	Details string
}

// IsSummary reports whether o is a summary-mode result.
func (o Output) IsSummary() bool {
	return o.Summary != ""
}

func (o Output) String() string {
	text := o.Notice
	if o.IsSummary() {
		text = o.Summary
	}
	if o.Details != "" && o.Details != text {
		return fmt.Sprintf("%s - %s (%s)", o.State, text, o.Details)
	}
	return fmt.Sprintf("%s - %s", o.State, text)
}

// MetricOutput is a rendered metric.
type MetricOutput struct {
	Name       string
	Value      float64
	Levels     *result.Pair
	Boundaries *result.Pair
}

func (m MetricOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s", m.Name, formatFloat(m.Value))
	if m.Levels != nil {
		fmt.Fprintf(&b, ";%s;%s", formatOptional(m.Levels[0]), formatOptional(m.Levels[1]))
	} else if m.Boundaries != nil {
		b.WriteString(";;")
	}
	if m.Boundaries != nil {
		fmt.Fprintf(&b, ";%s;%s", formatOptional(m.Boundaries[0]), formatOptional(m.Boundaries[1]))
	}
	return b.String()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// Evaluation is everything the section holds for one item.
type Evaluation struct {
	Results []Output
	Metrics []MetricOutput
}

// Empty reports whether the item was not found in any domain.
func (e Evaluation) Empty() bool {
	return len(e.Results) == 0 && len(e.Metrics) == 0
}

// State folds the states of all results.
func (e Evaluation) State() health.State {
	states := make([]health.State, 0, len(e.Results))
	for _, r := range e.Results {
		states = append(states, r.State)
	}
	return health.Worst(states...)
}

// Evaluate looks item up in every domain, in domain name order.
func Evaluate(sec section.Results, item string) Evaluation {
	var eval Evaluation
	for _, domain := range sortedKeys(sec) {
		set := sec[domain]
		if set == nil {
			continue
		}
		if r, ok := set.Services[item]; ok {
			eval.Results = append(eval.Results, render(r))
		}
		if m, ok := set.Metrics[item]; ok {
			eval.Metrics = append(eval.Metrics, MetricOutput{
				Name:       item,
				Value:      m.Value,
				Levels:     m.Levels,
				Boundaries: m.Boundaries,
			})
		}
	}
	return eval
}

func render(r result.CheckResult) Output {
	out := Output{State: r.State}
	if r.Details != nil {
		out.Details = *r.Details
	}
	if r.Summary != nil && *r.Summary != "" {
		out.Summary = *r.Summary
		return out
	}
	if r.Notice != nil {
		out.Notice = *r.Notice
	}
	return out
}

// Inventory flattens every domain into attribute nodes and table rows,
// in domain name order.
func Inventory(inv section.Inventory) ([]result.Attributes, []result.TableRow) {
	var (
		attrs []result.Attributes
		rows  []result.TableRow
	)
	for _, domain := range sortedKeys(inv) {
		set := inv[domain]
		if set == nil {
			continue
		}
		attrs = append(attrs, set.Attributes...)
		rows = append(rows, set.Rows...)
	}
	return attrs, rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
