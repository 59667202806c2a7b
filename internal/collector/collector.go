// Package collector turns array collections into result and inventory
// sections.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/nholik/flash-sentinel/internal/config"
	"github.com/nholik/flash-sentinel/internal/health"
	"github.com/nholik/flash-sentinel/internal/metrics"
	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/result"
	"github.com/nholik/flash-sentinel/internal/section"
	"github.com/nholik/flash-sentinel/internal/source"
	"github.com/rs/zerolog"
)

// Result domains.
const (
	DomainHardware         = "hardware"
	DomainCertificates     = "certificates"
	DomainDrives           = "drives"
	DomainArray            = "array"
	DomainAlerts           = "alerts"
	DomainArrayConnections = "arrayconnections"
	DomainPortDetails      = "portdetails"
)

// Inventory domains not shared with results.
const (
	DomainSoftware          = "software"
	DomainDNS               = "dns"
	DomainAPITokens         = "apitokens"
	DomainNetworkInterfaces = "network_interfaces"
	DomainHosts             = "hosts"
	DomainVolumes           = "volumes"
	DomainSupport           = "support"
	DomainNICs              = "nics"
)

// Config holds the evaluation settings of one run.
type Config struct {
	Array        health.Levels
	Certificates health.Levels
	// Space levels of the FlashBlade scopes.
	ArraySpace       health.Levels
	FilesystemSpace  health.Levels
	ObjectstoreSpace health.Levels
	// Alerts is nil when alerts are not collected.
	Alerts   *health.AlertPolicy
	Hardware []config.HardwareCustomization
	// PageLimit is the page size requested from paginated endpoints.
	PageLimit int
	Now       func() time.Time
}

// ConfigFromAgent derives a Config from the stdin document merged with
// file customizations.
func ConfigFromAgent(agent config.Agent, fileCustomizations []config.HardwareCustomization) Config {
	return Config{
		Array:            agent.Array,
		Certificates:     agent.Certificates,
		ArraySpace:       agent.ArraySpace,
		FilesystemSpace:  agent.FilesystemSpace,
		ObjectstoreSpace: agent.ObjectstoreSpace,
		Alerts:           agent.Alerts,
		Hardware:         config.MergeCustomizations(fileCustomizations, agent.Hardware),
	}
}

// Sources are the per-run cached collections.
type Sources struct {
	Hardware         source.Source[purity.Hardware]
	Drives           source.Source[purity.Drive]
	Controllers      source.Source[purity.Controller]
	Arrays           source.Source[purity.Array]
	Alerts           source.Source[purity.Alert]
	Certificates     source.Source[purity.Certificate]
	AdminSettings    source.Source[purity.AdminSettings]
	APITokens        source.Source[purity.AdminAPIToken]
	SMTPServers      source.Source[purity.SMTPServer]
	DNS              source.Source[purity.DNS]
	ArrayConnections source.Source[purity.ArrayConnection]
	Interfaces       source.Source[purity.NetworkInterface]
	PortDetails      source.Source[purity.PortDetails]
	Hosts            source.Source[purity.Host]
	Volumes          source.Source[purity.Volume]
	Support          source.Source[purity.Support]
}

// NewSources builds one cache per collection on top of r. Settings-style
// resources read a single page, collections are drained.
func NewSources(r purity.Requester, pageLimit int, m *metrics.Metrics) Sources {
	return Sources{
		Hardware:         paginated[purity.Hardware](r, purity.ResourceHardware, pageLimit, m),
		Drives:           paginated[purity.Drive](r, purity.ResourceDrives, pageLimit, m),
		Controllers:      paginated[purity.Controller](r, purity.ResourceControllers, pageLimit, m),
		Arrays:           paginated[purity.Array](r, purity.ResourceArrays, pageLimit, m),
		Alerts:           paginated[purity.Alert](r, purity.ResourceAlerts, pageLimit, m),
		Certificates:     paginated[purity.Certificate](r, purity.ResourceCertificates, pageLimit, m),
		AdminSettings:    single[purity.AdminSettings](r, purity.ResourceAdminSettings, pageLimit, m),
		APITokens:        paginated[purity.AdminAPIToken](r, purity.ResourceAPITokens, pageLimit, m),
		SMTPServers:      single[purity.SMTPServer](r, purity.ResourceSMTPServers, pageLimit, m),
		DNS:              single[purity.DNS](r, purity.ResourceDNS, pageLimit, m),
		ArrayConnections: paginated[purity.ArrayConnection](r, purity.ResourceArrayConnections, pageLimit, m),
		Interfaces:       paginated[purity.NetworkInterface](r, purity.ResourceInterfaces, pageLimit, m),
		PortDetails:      paginated[purity.PortDetails](r, purity.ResourcePortDetails, pageLimit, m),
		Hosts:            paginated[purity.Host](r, purity.ResourceHosts, pageLimit, m),
		Volumes:          paginated[purity.Volume](r, purity.ResourceVolumes, pageLimit, m),
		Support:          single[purity.Support](r, purity.ResourceSupport, pageLimit, m),
	}
}

func paginated[T any](r purity.Requester, resource string, limit int, m *metrics.Metrics) source.Source[T] {
	return cached(source.Paginated(purity.List[T](r, resource, limit)), resource, m)
}

func single[T any](r purity.Requester, resource string, limit int, m *metrics.Metrics) source.Source[T] {
	return cached(source.Single(purity.List[T](r, resource, limit)), resource, m)
}

func cached[T any](backend source.Source[T], resource string, m *metrics.Metrics) source.Source[T] {
	observed := source.Observe(backend, func(n int) { m.AddItemsFetched(resource, n) })
	return source.Cached(observed)
}

// Collector evaluates the sources of one run.
type Collector struct {
	logger zerolog.Logger
	cfg    Config
	src    Sources
	custom map[string]config.HardwareCustomization
	now    func() time.Time
}

// New returns a Collector over src.
func New(src Sources, cfg Config, logger zerolog.Logger) *Collector {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Collector{
		logger: logger,
		cfg:    cfg,
		src:    src,
		custom: config.CustomizationIndex(cfg.Hardware),
		now:    now,
	}
}

// Results evaluates every result domain. The first failing collection
// aborts the whole section.
func (c *Collector) Results(ctx context.Context) (section.Results, error) {
	steps := []struct {
		domain string
		fn     func(context.Context) (*result.ResultSet, error)
	}{
		{DomainHardware, c.hardwareResults},
		{DomainCertificates, c.certificateResults},
		{DomainDrives, c.driveResults},
		{DomainArray, c.arrayResults},
		{DomainAlerts, c.alertResults},
		{DomainArrayConnections, c.arrayConnectionResults},
		{DomainPortDetails, c.portDetailResults},
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

// Inventory builds every inventory domain.
func (c *Collector) Inventory(ctx context.Context) (section.Inventory, error) {
	steps := []struct {
		domain string
		fn     func(context.Context) (*result.InventorySet, error)
	}{
		{DomainHardware, c.hardwareInventory},
		{DomainSoftware, c.softwareInventory},
		{DomainDNS, c.dnsInventory},
		{DomainAPITokens, c.apiTokenInventory},
		{DomainNetworkInterfaces, c.networkInterfaceInventory},
		{DomainHosts, c.hostInventory},
		{DomainVolumes, c.volumeInventory},
		{DomainSupport, c.supportInventory},
		{DomainNICs, c.nicInventory},
		{DomainArrayConnections, c.arrayConnectionInventory},
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
