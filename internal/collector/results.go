package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nholik/flash-sentinel/internal/config"
	"github.com/nholik/flash-sentinel/internal/health"
	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/result"
)

func (c *Collector) serviceName(kind, name string) string {
	return customName(c.custom, kind, name)
}

// customName applies the customization registered for kind.
func customName(custom map[string]config.HardwareCustomization, kind, name string) string {
	cu, ok := custom[kind]
	if !ok {
		return name
	}
	return cu.Prefix + name + cu.Suffix
}

func (c *Collector) hardwareResults(ctx context.Context) (*result.ResultSet, error) {
	items, err := c.src.Hardware.Query(ctx)
	if err != nil {
		return nil, err
	}

	var controllers []purity.Controller
	set := result.NewResultSet()
	for _, item := range items {
		if item.Name == nil {
			continue
		}
		state, ok := health.Components.Classify(item.Status)
		if !ok {
			continue
		}

		summary := item.Status
		details := deref(item.Details)
		kind := deref(item.Type)
		if kind == purity.HardwareController {
			if controllers == nil {
				controllers, err = c.src.Controllers.Query(ctx)
				if err != nil {
					return nil, err
				}
			}
			for _, ctrl := range controllers {
				if ctrl.Name != nil && *ctrl.Name == *item.Name {
					summary = deref(ctrl.Status)
					details = deref(ctrl.Mode)
					break
				}
			}
		}

		name := c.serviceName(kind, *item.Name)
		set.AddService(name, result.Summary(state, summary).WithDetails(details))
		switch {
		case item.Temperature != nil:
			set.AddMetric(name, result.Metric{Value: *item.Temperature})
		case item.Speed != nil:
			set.AddMetric(name, result.Metric{Value: float64(*item.Speed)})
		}
	}
	return set, nil
}

func (c *Collector) driveResults(ctx context.Context) (*result.ResultSet, error) {
	drives, err := c.src.Drives.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewResultSet()
	for _, drive := range drives {
		if drive.Name == nil {
			continue
		}
		state, ok := health.Drives.Classify(drive.Status)
		if !ok {
			continue
		}
		set.AddService(*drive.Name, result.Summary(state, drive.Status))
	}
	return set, nil
}

// addMeasured stores a metric and a service evaluated against the same
// levels. Details default to the raw value.
func addMeasured(set *result.ResultSet, name string, metric result.Metric, levels *health.Levels, cmp health.Comparator, summary, details string) {
	state := health.StateOK
	if levels != nil {
		state = health.Evaluate(metric.Value, *levels, cmp)
		metric.Levels = result.NewPair(levels.Warn, levels.Crit)
	}
	if details == "" {
		details = formatValue(metric.Value)
	}
	set.AddMetric(name, metric)
	set.AddService(name, result.Summary(state, summary).WithDetails(details))
}

func (c *Collector) arrayResults(ctx context.Context) (*result.ResultSet, error) {
	arrays, err := c.src.Arrays.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewResultSet()
	for i, array := range arrays {
		prefix := ""
		if i > 0 {
			label := deref(array.Name)
			if label == "" {
				label = fmt.Sprintf("array %d", i+1)
			}
			prefix = label + " "
		}
		c.addArray(set, prefix, array)
	}
	return set, nil
}

func (c *Collector) addArray(set *result.ResultSet, prefix string, array purity.Array) {
	space := array.Space
	if space == nil {
		space = &purity.ArraySpace{}
	}

	if array.Capacity != nil && *array.Capacity > 0 && space.TotalPhysical != nil {
		physical, capacity := *space.TotalPhysical, *array.Capacity
		ratio := 100 * float64(physical) / float64(capacity)
		levels := c.cfg.Array
		addMeasured(set, prefix+"used capacity",
			result.Metric{Value: ratio, Boundaries: result.NewPair(0, 100)},
			&levels, health.GTE,
			fmt.Sprintf("%.1f%% full (%s of %s)", ratio, FormatBytes(physical), FormatBytes(capacity)),
			deref(array.ID),
		)
	}

	byteValues := []struct {
		name  string
		value *int64
	}{
		{"total physical", space.TotalPhysical},
		{"shared", space.Shared},
		{"snapshots", space.Snapshots},
		{"system", space.System},
		{"total provisioned", space.TotalProvisioned},
		{"used provisioned", space.UsedProvisioned},
		{"total capacity", array.Capacity},
	}
	for _, bv := range byteValues {
		if bv.value == nil {
			continue
		}
		addMeasured(set, prefix+bv.name, result.Metric{Value: float64(*bv.value)}, nil, nil, FormatBytes(*bv.value), "")
	}

	ratios := []struct {
		name  string
		value *float64
	}{
		{"total reduction", space.TotalReduction},
		{"data reduction", space.DataReduction},
	}
	for _, r := range ratios {
		if r.value == nil {
			continue
		}
		addMeasured(set, prefix+r.name, result.Metric{Value: *r.value}, nil, nil, fmt.Sprintf("%.1f to 1", *r.value), "")
	}

	if space.ThinProvisioning != nil {
		thin := *space.ThinProvisioning * 100
		addMeasured(set, prefix+"thin provisioning", result.Metric{Value: thin}, nil, nil, fmt.Sprintf("%.1f%%", thin), "")
	}
}

func (c *Collector) certificateResults(ctx context.Context) (*result.ResultSet, error) {
	certs, err := c.src.Certificates.Query(ctx)
	if err != nil {
		return nil, err
	}
	return certificateSet(certs, c.cfg.Certificates, c.now()), nil
}

// certificateSet evaluates the days left on every certificate. Both
// products report validity the same way.
func certificateSet(certs []purity.Certificate, levels health.Levels, now time.Time) *result.ResultSet {
	set := result.NewResultSet()
	for _, cert := range certs {
		if cert.Name == nil || cert.ValidTo == nil {
			continue
		}
		days := time.UnixMilli(*cert.ValidTo).Sub(now).Hours() / 24
		addMeasured(set, *cert.Name+" certificate",
			result.Metric{Value: days},
			&levels, health.LTE,
			fmt.Sprintf("%.1f days left until expiration", days),
			deref(cert.Status),
		)
	}
	return set
}

func (c *Collector) alertResults(ctx context.Context) (*result.ResultSet, error) {
	if c.cfg.Alerts == nil {
		return result.NewResultSet(), nil
	}
	alerts, err := c.src.Alerts.Query(ctx)
	if err != nil {
		return nil, err
	}
	return alertSet(alerts, *c.cfg.Alerts, c.now()), nil
}

// alertSet turns the alerts selected by policy into services.
func alertSet(alerts []purity.Alert, policy health.AlertPolicy, now time.Time) *result.ResultSet {
	set := result.NewResultSet()
	for _, alert := range alerts {
		if alert.Name == nil {
			continue
		}
		var updated time.Time
		if alert.Updated != nil {
			updated = time.UnixMilli(*alert.Updated)
		}
		state, ok := health.EvaluateAlert(health.Alert{
			Name:     *alert.Name,
			Severity: deref(alert.Severity),
			State:    deref(alert.State),
			Updated:  updated,
		}, policy, now)
		if !ok {
			continue
		}

		summary := deref(alert.Summary)
		if summary == "" {
			summary = *alert.Name
		}
		set.AddService("Alert "+*alert.Name, result.Summary(state, summary).WithDetails(deref(alert.Description)))
	}
	return set
}

func (c *Collector) arrayConnectionResults(ctx context.Context) (*result.ResultSet, error) {
	conns, err := c.src.ArrayConnections.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewResultSet()
	for _, conn := range conns {
		if conn.Name == nil {
			continue
		}
		status := deref(conn.Status)
		state, ok := health.ArrayConnections.Classify(status)
		if !ok {
			continue
		}
		set.AddService(*conn.Name, result.Summary(state, status))
	}
	return set, nil
}

func (c *Collector) portDetailResults(ctx context.Context) (*result.ResultSet, error) {
	ports, err := c.src.PortDetails.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewResultSet()
	for _, port := range ports {
		if port.Name == nil {
			continue
		}
		base := "Port " + *port.Name

		var (
			statuses []string
			flags    []bool
			raised   int
		)
		for _, list := range port.Readings() {
			for _, reading := range list.Readings {
				state, ok := health.PortReadings.Classify(reading.Status)
				if !ok {
					continue
				}
				statuses = append(statuses, reading.Status)
				name := channelName(base+" "+list.Name, reading.Channel)
				set.AddService(name, result.Summary(state, formatValue(reading.Measurement)))
				set.AddMetric(name, result.Metric{Value: reading.Measurement})
			}
		}
		for _, list := range port.Flags() {
			for _, flag := range list.Flags {
				flags = append(flags, flag.Flag)
				name := channelName(base+" "+list.Name, flag.Channel)
				if flag.Flag {
					raised++
					set.AddService(name, result.Summary(health.StateCrit, "Flagged"))
					continue
				}
				set.AddService(name, result.Summary(health.StateOK, "Not flagged"))
			}
		}

		state := health.FoldReadings(health.PortReadings, statuses, flags)
		set.AddService(base, result.Summary(state, rollupSummary(len(statuses), raised)))
	}
	return set, nil
}

func channelName(name string, channel *int) string {
	if channel == nil {
		return name
	}
	return fmt.Sprintf("%s (channel %d)", name, *channel)
}

func rollupSummary(readings, raised int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d readings", readings)
	if raised == 1 {
		b.WriteString(", 1 flag raised")
	} else {
		fmt.Fprintf(&b, ", %d flags raised", raised)
	}
	return b.String()
}
