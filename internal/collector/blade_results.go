package collector

import (
	"context"
	"fmt"

	"github.com/nholik/flash-sentinel/internal/health"
	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/result"
	"github.com/nholik/flash-sentinel/internal/source"
)

func (c *BladeCollector) hardwareResults(ctx context.Context) (*result.ResultSet, error) {
	items, err := c.src.Hardware.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewResultSet()
	for _, item := range items {
		if item.Name == nil {
			continue
		}
		state, ok := health.BladeComponents.Classify(item.Status)
		if !ok {
			continue
		}
		name := customName(c.custom, deref(item.Type), *item.Name)
		set.AddService(name, result.Summary(state, item.Status).WithDetails(deref(item.Details)))
		switch {
		case item.Temperature != nil:
			set.AddMetric(name, result.Metric{Value: *item.Temperature})
		case item.Speed != nil:
			set.AddMetric(name, result.Metric{Value: float64(*item.Speed)})
		}
	}
	return set, nil
}

func (c *BladeCollector) alertResults(ctx context.Context) (*result.ResultSet, error) {
	if c.cfg.Alerts == nil {
		return result.NewResultSet(), nil
	}
	alerts, err := c.src.Alerts.Query(ctx)
	if err != nil {
		return nil, err
	}
	return alertSet(alerts, *c.cfg.Alerts, c.now()), nil
}

func (c *BladeCollector) certificateResults(ctx context.Context) (*result.ResultSet, error) {
	certs, err := c.src.Certificates.Query(ctx)
	if err != nil {
		return nil, err
	}
	return certificateSet(certs, c.cfg.Certificates, c.now()), nil
}

func (c *BladeCollector) spaceResults(ctx context.Context) (*result.ResultSet, error) {
	scopes := []struct {
		name   string
		src    source.Source[purity.BladeArraySpace]
		levels health.Levels
	}{
		{"Array space", c.src.ArraySpace, c.cfg.ArraySpace},
		{"Filesystem space", c.src.FilesystemSpace, c.cfg.FilesystemSpace},
		{"Objectstore space", c.src.ObjectstoreSpace, c.cfg.ObjectstoreSpace},
	}

	set := result.NewResultSet()
	for _, scope := range scopes {
		items, err := scope.src.Query(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", scope.name, err)
		}
		if len(items) == 0 {
			continue
		}
		addBladeSpace(set, scope.name, items[0], scope.levels)
	}
	return set, nil
}

// addBladeSpace reports one space scope. A scope without capacity or
// physical usage produces nothing.
func addBladeSpace(set *result.ResultSet, name string, scope purity.BladeArraySpace, levels health.Levels) {
	if scope.Capacity == nil || *scope.Capacity <= 0 || scope.Space == nil || scope.Space.TotalPhysical == nil {
		return
	}
	physical, capacity := *scope.Space.TotalPhysical, *scope.Capacity
	used := int64(100 * float64(physical) / float64(capacity))
	addMeasured(set, name,
		result.Metric{Value: float64(used), Boundaries: result.NewPair(0, 100)},
		&levels, health.GTE,
		fmt.Sprintf("%d%% used (%s of %s)", used, FormatBytes(physical), FormatBytes(capacity)),
		"",
	)

	byteValues := []struct {
		name  string
		value *int64
	}{
		{"total physical", scope.Space.TotalPhysical},
		{"capacity", scope.Capacity},
		{"snapshots", scope.Space.Snapshots},
		{"unique", scope.Space.Unique},
		{"virtual", scope.Space.Virtual},
	}
	for _, bv := range byteValues {
		if bv.value == nil {
			continue
		}
		addMeasured(set, name+" "+bv.name, result.Metric{Value: float64(*bv.value)}, nil, nil, FormatBytes(*bv.value), "")
	}

	if scope.Parity != nil {
		addMeasured(set, name+" parity", result.Metric{Value: *scope.Parity}, nil, nil, formatValue(*scope.Parity), "")
	}
	if r := scope.Space.DataReduction; r != nil {
		addMeasured(set, name+" data reduction", result.Metric{Value: *r}, nil, nil, fmt.Sprintf("%.1f to 1", *r), "")
	}
}
