package purity

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/nholik/flash-sentinel/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	// MaxAPIMinor is the newest 2.x API revision this client understands.
	MaxAPIMinor = 21

	authHeader      = "x-auth-token"
	apiTokenHeader  = "api-token"
	defaultMaxBytes = int64(32 << 20)
	errorBodyLimit  = 1024
)

// Options configure a session.
type Options struct {
	// Host is host[:port], optionally prefixed with http:// or https://.
	Host      string
	APIToken  string
	VerifyTLS bool
	// CACert is PEM text. With VerifyTLS it becomes the only trusted root.
	CACert    string
	Timeout   time.Duration
	UserAgent string
	// MaxBytes bounds a single response body.
	MaxBytes int64
}

// Client is an authenticated REST session with one array.
type Client struct {
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	http       *retryablehttp.Client
	baseURL    string
	host       string
	apiVersion string
	authToken  string
	userAgent  string
	maxBytes   int64
}

// Connect negotiates the API version and logs in with the API token.
// Failures are returned as *ConnectionError.
func Connect(ctx context.Context, opts Options, logger zerolog.Logger, m *metrics.Metrics) (*Client, error) {
	baseURL, err := BaseURL(opts.Host)
	if err != nil {
		return nil, &ConnectionError{Host: opts.Host, Op: "parse host", Err: err}
	}

	tlsConfig, err := buildTLSConfig(opts)
	if err != nil {
		return nil, &ConnectionError{Host: opts.Host, Op: "tls", Err: err}
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = tlsConfig

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 0
	httpClient.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	httpClient.Logger = nil
	httpClient.HTTPClient = &http.Client{Timeout: opts.Timeout, Transport: transport}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "flash-sentinel"
	}

	c := &Client{
		logger:    logger,
		metrics:   m,
		http:      httpClient,
		baseURL:   baseURL,
		host:      opts.Host,
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}

	version, err := c.negotiateVersion(ctx)
	if err != nil {
		return nil, &ConnectionError{Host: opts.Host, Op: "api version", Err: err}
	}
	c.apiVersion = version

	if err := c.login(ctx, opts.APIToken); err != nil {
		return nil, &ConnectionError{Host: opts.Host, Op: "login", Err: err}
	}

	logger.Debug().
		Str("host", opts.Host).
		Str("api_version", version).
		Msg("session established")

	return c, nil
}

// APIVersion returns the negotiated API version, e.g. "2.21".
func (c *Client) APIVersion() string {
	return c.apiVersion
}

// BaseURL turns a configured host into the API base URL.
func BaseURL(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("host is empty")
	}
	raw := host
	if !strings.Contains(host, "://") {
		raw = "https://" + host
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("host is empty")
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return "", fmt.Errorf("host must not contain a path: %q", parsed.Path)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

func buildTLSConfig(opts Options) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if !opts.VerifyTLS {
		cfg.InsecureSkipVerify = true //nolint:gosec // explicitly requested by configuration
		return cfg, nil
	}
	if strings.TrimSpace(opts.CACert) == "" {
		return cfg, nil
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(opts.CACert)) {
		return nil, errors.New("no certificate found in cacert")
	}
	cfg.RootCAs = pool
	return cfg, nil
}

type versionResponse struct {
	Version []string `json:"version"`
}

func (c *Client) negotiateVersion(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/api_version", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := readWithLimit(resp.Body, c.maxBytes)
	if err != nil {
		return "", err
	}
	var versions versionResponse
	if err := json.Unmarshal(body, &versions); err != nil {
		return "", fmt.Errorf("decode api versions: %w", err)
	}
	return pickVersion(versions.Version)
}

// pickVersion returns the highest 2.x version not newer than MaxAPIMinor.
func pickVersion(versions []string) (string, error) {
	best := -1
	for _, v := range versions {
		major, minor, ok := strings.Cut(strings.TrimSpace(v), ".")
		if !ok || major != "2" {
			continue
		}
		n, err := strconv.Atoi(minor)
		if err != nil || n > MaxAPIMinor {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return "", fmt.Errorf("no supported api version in %v", versions)
	}
	return "2." + strconv.Itoa(best), nil
}

func (c *Client) login(ctx context.Context, apiToken string) error {
	if apiToken == "" {
		return errors.New("api token is empty")
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set(apiTokenHeader, apiToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		if text := strings.TrimSpace(string(body)); text != "" {
			return fmt.Errorf("login rejected: %s (%s)", resp.Status, text)
		}
		return fmt.Errorf("login rejected: %s", resp.Status)
	}
	token := resp.Header.Get(authHeader)
	if token == "" {
		return errors.New("login response carries no auth token")
	}
	c.authToken = token
	return nil
}

// Get implements Requester.
func (c *Client) Get(ctx context.Context, resource string, query url.Values, out any) error {
	endpoint := strings.Trim(resource, "/")
	target := c.baseURL + "/api/" + c.apiVersion + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	c.setCommonHeaders(req)
	req.Header.Set(authHeader, c.authToken)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.IncAPIRequests(endpoint, "error")
		return fmt.Errorf("query %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.IncAPIRequests(endpoint, statusClass(resp.StatusCode))

	body, err := readWithLimit(resp.Body, c.maxBytes)
	if err != nil {
		return fmt.Errorf("query %s: %w", endpoint, err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newFault(endpoint, resp.StatusCode, body)
	}

	var envelope struct {
		Errors []ErrorDetail `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		return &UpstreamFault{Endpoint: endpoint, StatusCode: resp.StatusCode, Errors: envelope.Errors}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *retryablehttp.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

func newFault(endpoint string, status int, body []byte) *UpstreamFault {
	fault := &UpstreamFault{Endpoint: endpoint, StatusCode: status}
	var envelope struct {
		Errors []ErrorDetail `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		fault.Errors = envelope.Errors
		return fault
	}
	text := strings.TrimSpace(string(body))
	if len(text) > errorBodyLimit {
		text = text[:errorBodyLimit]
	}
	fault.Body = text
	return fault
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func readWithLimit(r io.Reader, maxBytes int64) ([]byte, error) {
	limited := io.LimitReader(r, maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxBytes)
	}
	return body, nil
}
