package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nholik/flash-sentinel/internal/config"
	"github.com/nholik/flash-sentinel/internal/health"
	"github.com/nholik/flash-sentinel/internal/mockarray"
	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/result"
	"github.com/rs/zerolog"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	mock   *mockarray.Server
	client *purity.Client
}

func newHarness(t *testing.T, opts ...mockarray.Option) *harness {
	t.Helper()
	opts = append([]mockarray.Option{mockarray.WithClock(func() time.Time { return testNow })}, opts...)
	mock := mockarray.New(opts...)
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)

	client, err := purity.Connect(context.Background(), purity.Options{
		Host:     server.URL,
		APIToken: mock.APIToken(),
		Timeout:  5 * time.Second,
	}, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return &harness{mock: mock, client: client}
}

func defaultConfig() Config {
	policy := health.DefaultAlertPolicy()
	return Config{
		Array:        config.DefaultArrayLevels,
		Certificates: config.DefaultCertificateLevels,
		Alerts:       &policy,
		PageLimit:    1000,
		Now:          func() time.Time { return testNow },
	}
}

func (h *harness) collector(cfg Config) *Collector {
	return New(NewSources(h.client, cfg.PageLimit, nil), cfg, zerolog.Nop())
}

func (h *harness) results(t *testing.T, cfg Config) map[string]*result.ResultSet {
	t.Helper()
	out, err := h.collector(cfg).Results(context.Background())
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	return out
}

func (h *harness) inventory(t *testing.T, cfg Config) map[string]*result.InventorySet {
	t.Helper()
	out, err := h.collector(cfg).Inventory(context.Background())
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	return out
}

func service(t *testing.T, set *result.ResultSet, name string) result.CheckResult {
	t.Helper()
	r, ok := set.Services[name]
	if !ok {
		t.Fatalf("expected service %q", name)
	}
	return r
}

func text(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestResults_SingleDriveScenario(t *testing.T) {
	h := newHarness(t)
	if err := h.mock.AddDrive(0); err != nil {
		t.Fatalf("add drive: %v", err)
	}

	results := h.results(t, defaultConfig())
	drives := results[DomainDrives]
	if len(drives.Services) != 1 {
		t.Fatalf("expected 1 drive service, got %d", len(drives.Services))
	}
	drive := service(t, drives, "CH0.BAY0")
	if drive.State != health.StateOK {
		t.Fatalf("expected OK, got %s", drive.State)
	}
	if text(drive.Summary) != "healthy" {
		t.Fatalf("expected summary healthy, got %s", text(drive.Summary))
	}

	inv := h.inventory(t, defaultConfig())
	bays := inv[DomainHardware].RowsAt(result.PathBackplanes...)
	if len(bays) != mockarray.DriveBays {
		t.Fatalf("expected %d backplane rows, got %d", mockarray.DriveBays, len(bays))
	}
	withSerial := 0
	for _, bay := range bays {
		if bay.Inventory["serial"] != nil {
			withSerial++
		}
	}
	if withSerial != 1 {
		t.Fatalf("expected exactly 1 bay with a serial, got %d", withSerial)
	}
}

func TestResults_DomainsPresent(t *testing.T) {
	h := newHarness(t)
	results := h.results(t, defaultConfig())
	for _, domain := range []string{
		DomainHardware, DomainCertificates, DomainDrives, DomainArray,
		DomainAlerts, DomainArrayConnections, DomainPortDetails,
	} {
		if results[domain] == nil {
			t.Fatalf("expected domain %q", domain)
		}
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 domains, got %d", len(results))
	}
	for domain, set := range results {
		for name, r := range set.Services {
			if err := r.Validate(); err != nil {
				t.Fatalf("%s/%s: %v", domain, name, err)
			}
		}
	}
}

func TestResults_ControllerOverride(t *testing.T) {
	h := newHarness(t)
	hardware := h.results(t, defaultConfig())[DomainHardware]

	ct0 := service(t, hardware, "CT0")
	if ct0.State != health.StateOK {
		t.Fatalf("expected OK, got %s", ct0.State)
	}
	if text(ct0.Summary) != "ready" || text(ct0.Details) != "primary" {
		t.Fatalf("expected ready/primary, got %s/%s", text(ct0.Summary), text(ct0.Details))
	}

	if err := h.mock.SetControllerStatus("CT1", "not ready", "secondary"); err != nil {
		t.Fatalf("set controller: %v", err)
	}
	hardware = h.results(t, defaultConfig())[DomainHardware]
	ct1 := service(t, hardware, "CT1")
	if ct1.State != health.StateWarn {
		t.Fatalf("expected WARN from hardware status, got %s", ct1.State)
	}
	if text(ct1.Summary) != "not ready" {
		t.Fatalf("expected controller status as summary, got %s", text(ct1.Summary))
	}
}

func TestResults_HardwareSuppressionAndMetrics(t *testing.T) {
	h := newHarness(t)
	hardware := h.results(t, defaultConfig())[DomainHardware]

	if _, ok := hardware.Services["CH0.BAY0"]; ok {
		t.Fatalf("expected empty bay to be suppressed")
	}
	if m, ok := hardware.Metrics["CT0.TMP0"]; !ok || m.Value != 38 {
		t.Fatalf("expected temperature metric 38, got %+v", m)
	}
	if m, ok := hardware.Metrics["CT0.ETH10"]; !ok || m.Value != 40000000000 {
		t.Fatalf("expected speed metric, got %+v", m)
	}
	if _, ok := hardware.Metrics["CH0"]; ok {
		t.Fatalf("expected no metric for chassis")
	}
}

func TestResults_HardwareCustomization(t *testing.T) {
	h := newHarness(t)
	cfg := defaultConfig()
	cfg.Hardware = []config.HardwareCustomization{
		{APIType: purity.HardwareController, Prefix: "Controller ", Suffix: ""},
		{APIType: purity.HardwareCooling, Prefix: "", Suffix: " fan"},
	}
	hardware := h.results(t, cfg)[DomainHardware]

	service(t, hardware, "Controller CT0")
	service(t, hardware, "CT0.FAN1 fan")
	if _, ok := hardware.Services["CT0"]; ok {
		t.Fatalf("expected renamed controller service")
	}
	if _, ok := hardware.Metrics["CT0.TMP0"]; !ok {
		t.Fatalf("expected uncustomized types to keep their name")
	}
}

func TestResults_Array(t *testing.T) {
	h := newHarness(t)
	array := h.results(t, defaultConfig())[DomainArray]

	used := service(t, array, "used capacity")
	if used.State != health.StateOK {
		t.Fatalf("expected OK, got %s", used.State)
	}
	if got := text(used.Summary); got != "13.0% full (18 TB of 145 TB)" {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := text(used.Details); got != "c2515cb1-c2ee-4a96-94e1-17795ae102c3" {
		t.Fatalf("expected array id as details, got %q", got)
	}
	metric := array.Metrics["used capacity"]
	if metric.Levels == nil || *metric.Levels[0] != 80 || *metric.Levels[1] != 90 {
		t.Fatalf("expected levels 80/90, got %+v", metric.Levels)
	}
	if metric.Boundaries == nil || *metric.Boundaries[0] != 0 || *metric.Boundaries[1] != 100 {
		t.Fatalf("expected boundaries 0..100, got %+v", metric.Boundaries)
	}

	if got := text(service(t, array, "shared").Summary); got != "884 MB" {
		t.Fatalf("expected 884 MB, got %q", got)
	}
	if got := text(service(t, array, "data reduction").Summary); got != "2.0 to 1" {
		t.Fatalf("expected 2.0 to 1, got %q", got)
	}
	if got := text(service(t, array, "thin provisioning").Summary); got != "33.0%" {
		t.Fatalf("expected 33.0%%, got %q", got)
	}
	if got := text(service(t, array, "system").Summary); got != "0 B" {
		t.Fatalf("expected 0 B, got %q", got)
	}
	if _, ok := array.Services["replication"]; ok {
		t.Fatalf("unexpected service for absent field")
	}
}

func TestResults_ArrayThresholdsAndPrefix(t *testing.T) {
	h := newHarness(t)
	capacity := int64(1000)
	full := int64(950)
	half := int64(500)
	first, second := "fa-01", "fa-02"
	h.mock.SetArrays(
		purity.Array{Name: &first, Capacity: &capacity, Space: &purity.ArraySpace{TotalPhysical: &full}},
		purity.Array{Name: &second, Capacity: &capacity, Space: &purity.ArraySpace{TotalPhysical: &half}},
	)

	array := h.results(t, defaultConfig())[DomainArray]
	if got := service(t, array, "used capacity").State; got != health.StateCrit {
		t.Fatalf("expected CRIT for first array, got %s", got)
	}
	if got := service(t, array, "fa-02 used capacity").State; got != health.StateOK {
		t.Fatalf("expected OK for second array, got %s", got)
	}
	service(t, array, "fa-02 total capacity")
}

func TestResults_ArraySkipsZeroCapacity(t *testing.T) {
	h := newHarness(t)
	zero := int64(0)
	h.mock.SetArrays(purity.Array{Capacity: &zero, Space: &purity.ArraySpace{TotalPhysical: &zero}})

	array := h.results(t, defaultConfig())[DomainArray]
	if _, ok := array.Services["used capacity"]; ok {
		t.Fatalf("expected no used capacity without capacity")
	}
}

func TestResults_Certificates(t *testing.T) {
	tests := []struct {
		name  string
		valid time.Duration
		want  health.State
	}{
		{name: "far", valid: 400 * 24 * time.Hour, want: health.StateOK},
		{name: "warn", valid: 60 * 24 * time.Hour, want: health.StateWarn},
		{name: "crit", valid: 10 * 24 * time.Hour, want: health.StateCrit},
		{name: "expired", valid: -24 * time.Hour, want: health.StateCrit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			name, status := "management", "self-signed"
			validTo := testNow.Add(tt.valid).UnixMilli()
			h.mock.SetCertificates(purity.Certificate{Name: &name, Status: &status, ValidTo: &validTo})

			certs := h.results(t, defaultConfig())[DomainCertificates]
			got := service(t, certs, "management certificate")
			if got.State != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.State)
			}
			if text(got.Details) != "self-signed" {
				t.Fatalf("expected status as details, got %s", text(got.Details))
			}
			if tt.name == "far" && text(got.Summary) != "400.0 days left until expiration" {
				t.Fatalf("unexpected summary %q", text(got.Summary))
			}
		})
	}
}

func alert(name, severity, state string, updated time.Time) purity.Alert {
	summary := name + " summary"
	description := name + " description"
	ms := updated.UnixMilli()
	return purity.Alert{
		Name:        &name,
		Severity:    &severity,
		State:       &state,
		Summary:     &summary,
		Description: &description,
		Updated:     &ms,
	}
}

func TestResults_Alerts(t *testing.T) {
	h := newHarness(t)
	h.mock.AddAlert(alert("1", health.SeverityCritical, health.AlertOpen, testNow))
	h.mock.AddAlert(alert("2", health.SeverityWarning, health.AlertClosing, testNow))
	h.mock.AddAlert(alert("3", health.SeverityInfo, health.AlertClosed, testNow.Add(-10*time.Minute)))
	h.mock.AddAlert(alert("4", health.SeverityInfo, health.AlertClosed, testNow.Add(-2*time.Hour)))
	h.mock.AddAlert(alert("5", health.SeverityHidden, health.AlertOpen, testNow))
	h.mock.AddAlert(alert("6", "emergency", health.AlertOpen, testNow))

	alerts := h.results(t, defaultConfig())[DomainAlerts]

	want := map[string]health.State{
		"Alert 1": health.StateCrit,
		"Alert 2": health.StateWarn,
		"Alert 3": health.StateOK,
		"Alert 6": health.StateUnknown,
	}
	if len(alerts.Services) != len(want) {
		t.Fatalf("expected %d alerts, got %d", len(want), len(alerts.Services))
	}
	for name, state := range want {
		got := service(t, alerts, name)
		if got.State != state {
			t.Fatalf("%s: expected %s, got %s", name, state, got.State)
		}
	}
	first := service(t, alerts, "Alert 1")
	if text(first.Summary) != "1 summary" || text(first.Details) != "1 description" {
		t.Fatalf("unexpected alert text %s/%s", text(first.Summary), text(first.Details))
	}
}

func TestResults_AlertsDisabled(t *testing.T) {
	h := newHarness(t)
	h.mock.AddAlert(alert("1", health.SeverityCritical, health.AlertOpen, testNow))
	cfg := defaultConfig()
	cfg.Alerts = nil

	alerts := h.results(t, cfg)[DomainAlerts]
	if len(alerts.Services) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts.Services))
	}
	if n := h.mock.Requests(purity.ResourceAlerts); n != 0 {
		t.Fatalf("expected alerts not to be queried, got %d requests", n)
	}
}

func TestResults_AlertSummaryFallback(t *testing.T) {
	h := newHarness(t)
	a := alert("7", health.SeverityWarning, health.AlertOpen, testNow)
	a.Summary = nil
	h.mock.AddAlert(a)

	alerts := h.results(t, defaultConfig())[DomainAlerts]
	if got := text(service(t, alerts, "Alert 7").Summary); got != "7" {
		t.Fatalf("expected alert name as summary, got %q", got)
	}
}

func TestResults_ArrayConnections(t *testing.T) {
	h := newHarness(t, mockarray.WithPageLimit(1))
	for _, c := range []struct{ name, status string }{
		{"peer-a", "connected"},
		{"peer-b", "partially_connected"},
		{"peer-c", "broken"},
	} {
		name, status := c.name, c.status
		h.mock.AddArrayConnection(purity.ArrayConnection{Name: &name, Status: &status})
	}

	conns := h.results(t, defaultConfig())[DomainArrayConnections]
	want := map[string]health.State{
		"peer-a": health.StateOK,
		"peer-b": health.StateWarn,
		"peer-c": health.StateUnknown,
	}
	if len(conns.Services) != len(want) {
		t.Fatalf("expected %d connections across pages, got %d", len(want), len(conns.Services))
	}
	for name, state := range want {
		if got := service(t, conns, name).State; got != state {
			t.Fatalf("%s: expected %s, got %s", name, state, got)
		}
	}
}

func TestResults_PortDetails(t *testing.T) {
	h := newHarness(t)
	ports := h.results(t, defaultConfig())[DomainPortDetails]

	rollup := service(t, ports, "Port CT0.ETH10")
	if rollup.State != health.StateOK {
		t.Fatalf("expected OK rollup, got %s", rollup.State)
	}
	reading := service(t, ports, "Port CT0.ETH10 tx_bias (channel 2)")
	if text(reading.Summary) != "7.2" {
		t.Fatalf("expected measurement summary, got %s", text(reading.Summary))
	}
	if ports.Metrics["Port CT0.ETH10 tx_bias (channel 2)"].Value != 7.2 {
		t.Fatalf("expected metric 7.2")
	}
	service(t, ports, "Port CT0.ETH10 temperature")
	if got := text(service(t, ports, "Port CT0.FC1 rx_los").Summary); got != "Not flagged" {
		t.Fatalf("expected Not flagged, got %q", got)
	}

	if err := h.mock.SetPortFlag("CT0.ETH10", "rx_los", 2, true); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := h.mock.SetPortReading("CT1.FC1", "temperature", 0, "alarm high", 91); err != nil {
		t.Fatalf("set reading: %v", err)
	}
	if err := h.mock.SetPortReading("CT1.FC1", "voltage", 0, "unused", 0); err != nil {
		t.Fatalf("set reading: %v", err)
	}
	ports = h.results(t, defaultConfig())[DomainPortDetails]

	if got := service(t, ports, "Port CT0.ETH10").State; got != health.StateWarn {
		t.Fatalf("expected raised flag to warn, got %s", got)
	}
	flag := service(t, ports, "Port CT0.ETH10 rx_los (channel 3)")
	if flag.State != health.StateCrit || text(flag.Summary) != "Flagged" {
		t.Fatalf("expected CRIT Flagged, got %s %s", flag.State, text(flag.Summary))
	}
	if got := service(t, ports, "Port CT1.FC1").State; got != health.StateCrit {
		t.Fatalf("expected CRIT rollup, got %s", got)
	}
	if _, ok := ports.Services["Port CT1.FC1 voltage"]; ok {
		t.Fatalf("expected unused reading to be skipped")
	}
}

func TestResults_FaultAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.mock.InjectFault(purity.ResourceDrives, http.StatusInternalServerError)

	_, err := h.collector(defaultConfig()).Results(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	var fault *purity.UpstreamFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected UpstreamFault, got %T: %v", err, err)
	}
}

func TestResults_PaginatedDrives(t *testing.T) {
	h := newHarness(t, mockarray.WithPageLimit(2))
	for i := 0; i < 3; i++ {
		if err := h.mock.AddDrive(0); err != nil {
			t.Fatalf("add drive: %v", err)
		}
	}

	drives := h.results(t, defaultConfig())[DomainDrives]
	if len(drives.Services) != 3 {
		t.Fatalf("expected 3 drives, got %d", len(drives.Services))
	}
	if got := h.mock.Requests(purity.ResourceDrives); got != 8 {
		t.Fatalf("expected 8 page requests for 15 drives, got %d", got)
	}
	if open := h.mock.OpenCursors(); open != 0 {
		t.Fatalf("expected all cursors drained, got %d", open)
	}
}

func TestCollector_SourcesFetchedOnce(t *testing.T) {
	h := newHarness(t)
	c := h.collector(defaultConfig())

	if _, err := c.Results(context.Background()); err != nil {
		t.Fatalf("results: %v", err)
	}
	if _, err := c.Inventory(context.Background()); err != nil {
		t.Fatalf("inventory: %v", err)
	}
	for _, resource := range []string{
		purity.ResourceHardware, purity.ResourceArrays, purity.ResourceInterfaces, purity.ResourceArrayConnections,
	} {
		if got := h.mock.Requests(resource); got != 1 {
			t.Fatalf("%s: expected 1 request, got %d", resource, got)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1024, "1024 B"},
		{1025, "1 kB"},
		{1536, "1 kB"},
		{5 << 20, "5 MB"},
		{1 << 30, "1024 MB"},
		{3<<40 + 1, "3 TB"},
		{2 << 50, "2 PB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Fatalf("FormatBytes(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
