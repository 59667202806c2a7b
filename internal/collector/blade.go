package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/nholik/flash-sentinel/internal/config"
	"github.com/nholik/flash-sentinel/internal/metrics"
	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/result"
	"github.com/nholik/flash-sentinel/internal/section"
	"github.com/nholik/flash-sentinel/internal/source"
	"github.com/rs/zerolog"
)

// FlashBlade domains not shared with FlashArray.
const (
	DomainSpace = "space"
	DomainSMTP  = "smtp"
)

// BladeSources are the per-run cached collections of a FlashBlade.
type BladeSources struct {
	Hardware         source.Source[purity.BladeHardware]
	Blades           source.Source[purity.Blade]
	Interfaces       source.Source[purity.BladeInterface]
	Certificates     source.Source[purity.Certificate]
	Arrays           source.Source[purity.Array]
	ArraySpace       source.Source[purity.BladeArraySpace]
	FilesystemSpace  source.Source[purity.BladeArraySpace]
	ObjectstoreSpace source.Source[purity.BladeArraySpace]
	Alerts           source.Source[purity.Alert]
	Support          source.Source[purity.BladeSupport]
	DNS              source.Source[purity.DNS]
	SMTPServers      source.Source[purity.SMTPServer]
	APITokens        source.Source[purity.BladeAPIToken]
}

// NewBladeSources builds one cache per FlashBlade collection on top of r.
func NewBladeSources(r purity.Requester, pageLimit int, m *metrics.Metrics) BladeSources {
	return BladeSources{
		Hardware:         paginated[purity.BladeHardware](r, purity.ResourceHardware, pageLimit, m),
		Blades:           paginated[purity.Blade](r, purity.ResourceBlades, pageLimit, m),
		Interfaces:       paginated[purity.BladeInterface](r, purity.ResourceInterfaces, pageLimit, m),
		Certificates:     paginated[purity.Certificate](r, purity.ResourceCertificates, pageLimit, m),
		Arrays:           single[purity.Array](r, purity.ResourceArrays, pageLimit, m),
		ArraySpace:       space(r, purity.SpaceArray, pageLimit, m),
		FilesystemSpace:  space(r, purity.SpaceFileSystem, pageLimit, m),
		ObjectstoreSpace: space(r, purity.SpaceObjectStore, pageLimit, m),
		Alerts:           paginated[purity.Alert](r, purity.ResourceAlerts, pageLimit, m),
		Support:          single[purity.BladeSupport](r, purity.ResourceSupport, pageLimit, m),
		DNS:              single[purity.DNS](r, purity.ResourceDNS, pageLimit, m),
		SMTPServers:      single[purity.SMTPServer](r, purity.ResourceSMTPServers, pageLimit, m),
		APITokens:        paginated[purity.BladeAPIToken](r, purity.ResourceAPITokens, pageLimit, m),
	}
}

// space reads the first page of arrays/space filtered to one scope.
func space(r purity.Requester, scope string, limit int, m *metrics.Metrics) source.Source[purity.BladeArraySpace] {
	q := purity.ListWith[purity.BladeArraySpace](r, purity.ResourceArraysSpace, limit, url.Values{"type": {scope}})
	return cached(source.Single(q), purity.ResourceArraysSpace, m)
}

// BladeCollector evaluates the sources of one FlashBlade run.
type BladeCollector struct {
	logger zerolog.Logger
	cfg    Config
	src    BladeSources
	custom map[string]config.HardwareCustomization
	now    func() time.Time
}

// NewBlade returns a BladeCollector over src.
func NewBlade(src BladeSources, cfg Config, logger zerolog.Logger) *BladeCollector {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &BladeCollector{
		logger: logger,
		cfg:    cfg,
		src:    src,
		custom: config.CustomizationIndex(cfg.Hardware),
		now:    now,
	}
}

// Results evaluates every FlashBlade result domain. The first failing
// collection aborts the whole section.
func (c *BladeCollector) Results(ctx context.Context) (section.Results, error) {
	steps := []struct {
		domain string
		fn     func(context.Context) (*result.ResultSet, error)
	}{
		{DomainHardware, c.hardwareResults},
		{DomainAlerts, c.alertResults},
		{DomainCertificates, c.certificateResults},
		{DomainSpace, c.spaceResults},
	}

	out := make(section.Results, len(steps))
	for _, step := range steps {
		set, err := step.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", step.domain, err)
		}
		out[step.domain] = set
		c.logger.Debug().
			Str("domain", step.domain).
			Int("services", len(set.Services)).
			Int("metrics", len(set.Metrics)).
			Msg("results collected")
	}
	return out, nil
}

// Inventory builds every FlashBlade inventory domain.
func (c *BladeCollector) Inventory(ctx context.Context) (section.Inventory, error) {
	steps := []struct {
		domain string
		fn     func(context.Context) (*result.InventorySet, error)
	}{
		{DomainHardware, c.hardwareInventory},
		{DomainNetworkInterfaces, c.interfaceInventory},
		{DomainArray, c.arrayInventory},
		{DomainSupport, c.supportInventory},
		{DomainAPITokens, c.apiTokenInventory},
		{DomainSMTP, c.smtpInventory},
		{DomainDNS, c.dnsInventory},
	}

	out := make(section.Inventory, len(steps))
	for _, step := range steps {
		set, err := step.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("inventory %s: %w", step.domain, err)
		}
		out[step.domain] = set
		c.logger.Debug().
			Str("domain", step.domain).
			Int("attributes", len(set.Attributes)).
			Int("rows", len(set.Rows)).
			Msg("inventory collected")
	}
	return out, nil
}
