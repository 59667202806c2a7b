package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nholik/flash-sentinel/internal/config"
	"github.com/nholik/flash-sentinel/internal/metrics"
	"github.com/nholik/flash-sentinel/internal/mockarray"
	"github.com/nholik/flash-sentinel/internal/notify"
	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/section"
	"github.com/rs/zerolog"
)

type recordingNotifier struct {
	mu       sync.Mutex
	failures []notify.Failure
}

func (n *recordingNotifier) Notify(_ context.Context, failure notify.Failure) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, failure)
	return nil
}

func (n *recordingNotifier) all() []notify.Failure {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Failure(nil), n.failures...)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("stdout closed")
}

func runFailures(t *testing.T, m *metrics.Metrics, phase string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "flash_sentinel_run_failures_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "phase" && label.GetValue() == phase {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func startMock(t *testing.T, opts ...mockarray.Option) (*mockarray.Server, string) {
	t.Helper()
	mock := mockarray.New(opts...)
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)
	return mock, server.URL
}

func agentDocument(t *testing.T, host, token string, extra map[string]any) *strings.Reader {
	t.Helper()
	doc := map[string]any{
		"host":       host,
		"api_token":  token,
		"verify_tls": false,
	}
	for k, v := range extra {
		doc[k] = v
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal agent document: %v", err)
	}
	return strings.NewReader(string(data))
}

func TestRunner_Run_WritesBothSections(t *testing.T) {
	mock, url := startMock(t)
	if err := mock.AddDrive(0); err != nil {
		t.Fatalf("add drive: %v", err)
	}

	m := metrics.New()
	notifier := &recordingNotifier{}
	metricsFile := filepath.Join(t.TempDir(), "flash_sentinel.prom")
	r := New(zerolog.Nop(), WithMetrics(m), WithNotifier(notifier), WithMetricsFile(metricsFile))

	var stdout bytes.Buffer
	stdin := agentDocument(t, url, mock.APIToken(), map[string]any{
		"alerts": map[string]any{"info": true, "warning": true, "critical": true},
	})
	if err := r.Run(context.Background(), stdin, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}

	blocks, err := section.Parse(&stdout)
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(blocks) != 2 || blocks[0].ID != section.ResultsID || blocks[1].ID != section.InventoryID {
		t.Fatalf("expected results then inventory blocks, got %+v", blocks)
	}

	results, err := section.DecodeResults(blocks[0].Payload)
	if err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if got := len(results["drives"].Services); got != 1 {
		t.Fatalf("expected 1 drive service, got %d", got)
	}
	if _, err := section.DecodeInventory(blocks[1].Payload); err != nil {
		t.Fatalf("decode inventory: %v", err)
	}

	if len(notifier.all()) != 0 {
		t.Fatalf("expected no notification on success")
	}
	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	for _, want := range []string{
		`flash_sentinel_services_total{domain="drives",state="OK"} 1`,
		"flash_sentinel_last_successful_run_timestamp",
		`flash_sentinel_items_fetched_total{endpoint="drives"}`,
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected metrics file to contain %q, got:\n%s", want, data)
		}
	}
}

func TestRunner_Run_FlashBlade(t *testing.T) {
	mock, url := startMock(t, mockarray.WithFlashBlade())
	m := metrics.New()
	r := New(zerolog.Nop(), WithProduct(config.FlashBlade), WithMetrics(m))

	var stdout bytes.Buffer
	stdin := agentDocument(t, url, mock.APIToken(), map[string]any{
		"array_space": map[string]any{"warn": 10, "crit": 15},
	})
	if err := r.Run(context.Background(), stdin, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}

	blocks, err := section.Parse(&stdout)
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(blocks) != 2 || blocks[0].ID != section.BladeResultsID || blocks[1].ID != section.BladeInventoryID {
		t.Fatalf("expected flashblade results then inventory blocks, got %+v", blocks)
	}
	results, err := section.DecodeResults(blocks[0].Payload)
	if err != nil {
		t.Fatalf("decode results: %v", err)
	}
	space := results["space"].Services["Array space"]
	if space.State.String() != "CRIT" {
		t.Fatalf("expected agent space levels to apply, got %s", space.State)
	}
	if _, ok := results["drives"]; ok {
		t.Fatalf("expected no flasharray domains")
	}
	inventory, err := section.DecodeInventory(blocks[1].Payload)
	if err != nil {
		t.Fatalf("decode inventory: %v", err)
	}
	if inventory["smtp"] == nil {
		t.Fatalf("expected smtp inventory")
	}
	if mock.Requests(purity.ResourceDrives) != 0 {
		t.Fatalf("expected no flasharray resources to be queried")
	}
}

func TestRunner_Run_FlashBladeAgainstArrayFails(t *testing.T) {
	mock, url := startMock(t)
	r := New(zerolog.Nop(), WithProduct(config.FlashBlade))

	var stdout bytes.Buffer
	err := r.Run(context.Background(), agentDocument(t, url, mock.APIToken(), nil), &stdout)
	if PhaseOf(err) != PhaseCollect {
		t.Fatalf("expected collect phase, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected no output, got %q", stdout.String())
	}
}

func TestRunner_Run_FailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mock *mockarray.Server)
		stdin func(t *testing.T, url, token string) *strings.Reader
		phase string
	}{
		{
			name:  "empty stdin",
			stdin: func(*testing.T, string, string) *strings.Reader { return strings.NewReader("") },
			phase: PhaseConfig,
		},
		{
			name: "rejected token",
			stdin: func(t *testing.T, url, _ string) *strings.Reader {
				return agentDocument(t, url, "wrong-token", nil)
			},
			phase: PhaseConnect,
		},
		{
			name:  "drives fault",
			setup: func(mock *mockarray.Server) { mock.InjectFault(purity.ResourceDrives, http.StatusInternalServerError) },
			phase: PhaseCollect,
		},
		{
			name:  "hosts fault",
			setup: func(mock *mockarray.Server) { mock.InjectFault(purity.ResourceHosts, http.StatusForbidden) },
			phase: PhaseInventory,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock, url := startMock(t)
			if tt.setup != nil {
				tt.setup(mock)
			}
			stdin := agentDocument(t, url, mock.APIToken(), nil)
			if tt.stdin != nil {
				stdin = tt.stdin(t, url, mock.APIToken())
			}

			m := metrics.New()
			notifier := &recordingNotifier{}
			r := New(zerolog.Nop(), WithMetrics(m), WithNotifier(notifier))

			var stdout bytes.Buffer
			err := r.Run(context.Background(), stdin, &stdout)
			if err == nil {
				t.Fatalf("expected error")
			}
			var runErr *RunError
			if !errors.As(err, &runErr) {
				t.Fatalf("expected RunError, got %T", err)
			}
			if runErr.Phase != tt.phase {
				t.Fatalf("expected phase %q, got %q", tt.phase, runErr.Phase)
			}
			if stdout.Len() != 0 {
				t.Fatalf("expected no output, got %q", stdout.String())
			}
			if ExitCode(err) != 1 {
				t.Fatalf("expected exit code 1")
			}

			failures := notifier.all()
			if len(failures) != 1 || failures[0].Phase != tt.phase {
				t.Fatalf("expected one %s notification, got %+v", tt.phase, failures)
			}
			if failures[0].RunID == "" {
				t.Fatalf("expected run id on notification")
			}
			if got := runFailures(t, m, tt.phase); got != 1 {
				t.Fatalf("expected 1 failure for %s, got %v", tt.phase, got)
			}
		})
	}
}

func TestRunner_Run_ConnectErrorKeepsCause(t *testing.T) {
	mock, url := startMock(t)
	r := New(zerolog.Nop())

	err := r.Run(context.Background(), agentDocument(t, url, "wrong-token", nil), &bytes.Buffer{})
	var connErr *purity.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError in chain, got %v", err)
	}
	if mock.Requests(purity.ResourceDrives) != 0 {
		t.Fatalf("expected no collection after failed login")
	}
}

func TestRunner_Run_UpstreamFaultKeepsCause(t *testing.T) {
	mock, url := startMock(t)
	mock.InjectFault(purity.ResourceArrays, http.StatusOK)
	r := New(zerolog.Nop())

	err := r.Run(context.Background(), agentDocument(t, url, mock.APIToken(), nil), &bytes.Buffer{})
	var fault *purity.UpstreamFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected UpstreamFault in chain, got %v", err)
	}
}

func TestRunner_Run_WriteFailure(t *testing.T) {
	mock, url := startMock(t)
	notifier := &recordingNotifier{}
	r := New(zerolog.Nop(), WithNotifier(notifier))

	err := r.Run(context.Background(), agentDocument(t, url, mock.APIToken(), nil), failingWriter{})
	if PhaseOf(err) != PhaseWrite {
		t.Fatalf("expected write phase, got %v", err)
	}
	if len(notifier.all()) != 1 {
		t.Fatalf("expected a notification")
	}
}

func TestRunner_Run_UsesConnector(t *testing.T) {
	var got purity.Options
	connector := func(_ context.Context, opts purity.Options, _ zerolog.Logger, _ *metrics.Metrics) (purity.Requester, error) {
		got = opts
		return nil, errors.New("offline")
	}
	r := New(zerolog.Nop(), WithConnector(connector), WithRequestTimeout(7*time.Second))

	err := r.Run(context.Background(), agentDocument(t, "fa-01.example.com", "token", nil), &bytes.Buffer{})
	if PhaseOf(err) != PhaseConnect {
		t.Fatalf("expected connect phase, got %v", err)
	}
	if got.Host != "fa-01.example.com" || got.APIToken != "token" || got.VerifyTLS || got.Timeout != 7*time.Second {
		t.Fatalf("unexpected connector options %+v", got)
	}
}

func TestRunner_Run_FileCustomizations(t *testing.T) {
	mock, url := startMock(t)
	r := New(zerolog.Nop(), WithCustomizations([]config.HardwareCustomization{
		{APIType: "controller", Prefix: "File ", Suffix: ""},
		{APIType: "cooling", Prefix: "Fan ", Suffix: ""},
	}))

	var stdout bytes.Buffer
	stdin := agentDocument(t, url, mock.APIToken(), map[string]any{
		"hardware": []map[string]string{{"api_type": "controller", "prefix": "Agent ", "suffix": ""}},
	})
	if err := r.Run(context.Background(), stdin, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	blocks, err := section.Parse(&stdout)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	results, err := section.DecodeResults(blocks[0].Payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	hw := results["hardware"].Services
	if _, ok := hw["Agent CT0"]; !ok {
		t.Fatalf("expected agent customization to win")
	}
	if _, ok := hw["Fan CT0.FAN1"]; !ok {
		t.Fatalf("expected file customization to apply")
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatalf("expected 0 for success")
	}
	if ExitCode(&RunError{Phase: PhaseConfig, Err: errors.New("x")}) != 1 {
		t.Fatalf("expected 1 for failure")
	}
}

func TestRunError(t *testing.T) {
	inner := errors.New("boom")
	err := wrapRun(PhaseCollect, "fa-01", inner)
	if err.Error() != "collect fa-01: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected errors.Is to find inner error")
	}
	if wrapRun(PhaseCollect, "fa-01", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if PhaseOf(inner) != "" {
		t.Fatalf("expected empty phase for plain error")
	}
}
