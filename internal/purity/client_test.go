package purity

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testToken = "api-token-1"

func newArrayHandler(t *testing.T, drives http.HandlerFunc) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/api_version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":["1.19","2.0","2.4","2.21","2.30"]}`))
	})
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("api-token") != testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"message":"invalid api token"}]}`))
			return
		}
		w.Header().Set("x-auth-token", "session-1")
		_, _ = w.Write([]byte(`{"items":[{"username":"pureuser"}]}`))
	})
	mux.HandleFunc("/api/2.21/drives", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-auth-token") != "session-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		drives(w, r)
	})
	return mux
}

func connect(t *testing.T, server *httptest.Server, opts Options) (*Client, error) {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	if opts.Host == "" {
		opts.Host = server.URL
		if u.Scheme == "https" {
			opts.Host = u.Host
		}
	}
	if opts.APIToken == "" {
		opts.APIToken = testToken
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return Connect(context.Background(), opts, zerolog.Nop(), nil)
}

func TestConnect_NegotiatesVersionAndLogsIn(t *testing.T) {
	server := httptest.NewServer(newArrayHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "1000" {
			t.Errorf("expected limit 1000, got %q", r.URL.Query().Get("limit"))
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "flash-sentinel") {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{"items":[{"name":"CH0.BAY0","status":"healthy"},{"name":"CH0.BAY1","status":"unused"}],"continuation_token":null,"total_item_count":2}`))
	}))
	defer server.Close()

	client, err := connect(t, server, Options{VerifyTLS: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.APIVersion() != "2.21" {
		t.Fatalf("expected api version 2.21, got %q", client.APIVersion())
	}

	drives, err := FetchAll(context.Background(), List[Drive](client, ResourceDrives, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drives) != 2 {
		t.Fatalf("expected 2 drives, got %d", len(drives))
	}
	if drives[0].Name == nil || *drives[0].Name != "CH0.BAY0" || drives[0].Status != "healthy" {
		t.Fatalf("unexpected first drive: %+v", drives[0])
	}
	if drives[1].ID != nil || drives[1].Capacity != nil {
		t.Fatalf("expected absent optional fields to stay nil, got %+v", drives[1])
	}
}

func TestConnect_RejectedToken(t *testing.T) {
	server := httptest.NewServer(newArrayHandler(t, func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	_, err := connect(t, server, Options{APIToken: "wrong"})
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if connErr.Op != "login" {
		t.Fatalf("expected login op, got %q", connErr.Op)
	}
}

func TestConnect_NoSupportedVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":["1.17","1.19"]}`))
	}))
	defer server.Close()

	_, err := connect(t, server, Options{})
	var connErr *ConnectionError
	if !errors.As(err, &connErr) || connErr.Op != "api version" {
		t.Fatalf("expected api version ConnectionError, got %v", err)
	}
}

func TestConnect_PinnedCA(t *testing.T) {
	server := httptest.NewTLSServer(newArrayHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[],"total_item_count":0}`))
	}))
	defer server.Close()

	caPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw}))

	client, err := connect(t, server, Options{VerifyTLS: true, CACert: caPEM})
	if err != nil {
		t.Fatalf("expected pinned CA to verify, got %v", err)
	}
	drives, err := FetchAll(context.Background(), List[Drive](client, ResourceDrives, 0))
	if err != nil || len(drives) != 0 {
		t.Fatalf("expected empty drives, got %v, %v", drives, err)
	}
}

func TestConnect_UntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(newArrayHandler(t, func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	_, err := connect(t, server, Options{VerifyTLS: true})
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError for untrusted certificate, got %v", err)
	}
}

func TestConnect_InvalidCACert(t *testing.T) {
	_, err := Connect(context.Background(), Options{
		Host:      "array.example.com",
		APIToken:  testToken,
		VerifyTLS: true,
		CACert:    "not a certificate",
	}, zerolog.Nop(), nil)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) || connErr.Op != "tls" {
		t.Fatalf("expected tls ConnectionError, got %v", err)
	}
}

func TestGet_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(newArrayHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"context":"drives","message":"backend unavailable"}]}`))
	}))
	defer server.Close()

	client, err := connect(t, server, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = FetchAll(context.Background(), List[Drive](client, ResourceDrives, 0))
	var fault *UpstreamFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected UpstreamFault, got %v", err)
	}
	if len(fault.Errors) != 1 || fault.Errors[0].Message != "backend unavailable" {
		t.Fatalf("unexpected fault details: %+v", fault.Errors)
	}
	if !strings.HasPrefix(fault.Error(), "Pure Storage API query failed") {
		t.Fatalf("unexpected message: %q", fault.Error())
	}
}

func TestGet_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(newArrayHandler(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer server.Close()

	client, err := connect(t, server, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = FetchAll(context.Background(), List[Drive](client, ResourceDrives, 0))
	var fault *UpstreamFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected UpstreamFault, got %v", err)
	}
	if fault.StatusCode != http.StatusServiceUnavailable || fault.Body != "maintenance" {
		t.Fatalf("unexpected fault: %+v", fault)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
}

func TestGet_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(newArrayHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[` + strings.Repeat(`{"status":"healthy"},`, 100) + `{"status":"healthy"}]}`))
	}))
	defer server.Close()

	client, err := connect(t, server, Options{MaxBytes: 256})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := FetchAll(context.Background(), List[Drive](client, ResourceDrives, 0)); err == nil {
		t.Fatalf("expected size limit error")
	}
}

func TestPickVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		versions []string
		want     string
		wantErr  bool
	}{
		{name: "newest supported", versions: []string{"2.0", "2.21", "2.4"}, want: "2.21"},
		{name: "newer ignored", versions: []string{"2.2", "2.35"}, want: "2.2"},
		{name: "numeric compare", versions: []string{"2.9", "2.10"}, want: "2.10"},
		{name: "v1 only", versions: []string{"1.19"}, wantErr: true},
		{name: "garbage", versions: []string{"two", "2.x"}, wantErr: true},
		{name: "empty", versions: nil, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := pickVersion(tt.versions)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{host: "array.example.com", want: "https://array.example.com"},
		{host: "array.example.com:8443", want: "https://array.example.com:8443"},
		{host: "192.0.2.10", want: "https://192.0.2.10"},
		{host: "[2001:db8::1]:443", want: "https://[2001:db8::1]:443"},
		{host: "http://127.0.0.1:8080", want: "http://127.0.0.1:8080"},
		{host: "  ", wantErr: true},
		{host: "ftp://array", wantErr: true},
		{host: "array.example.com/api", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			got, err := BaseURL(tt.host)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
