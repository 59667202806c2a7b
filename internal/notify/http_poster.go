package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	errorBodyLimit = 1024
	userAgent      = "flash-sentinel"
)

// deliveryPolicy bounds how a notification is sent: per-request timeout,
// per-host rate and the retry schedule for temporary failures.
type deliveryPolicy struct {
	timeout     time.Duration
	rateEvery   time.Duration
	rateBurst   int
	initialWait time.Duration
	maxWait     time.Duration
	maxElapsed  time.Duration
}

var defaultPolicy = deliveryPolicy{
	timeout:     10 * time.Second,
	rateEvery:   time.Second,
	rateBurst:   1,
	initialWait: time.Second,
	maxWait:     10 * time.Second,
	maxElapsed:  30 * time.Second,
}

func (p deliveryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialWait
	b.MaxInterval = p.maxWait
	b.MaxElapsedTime = p.maxElapsed
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// deliveryError describes a failed POST. Temporary failures are retried.
type deliveryError struct {
	target     string
	status     string
	body       string
	retryAfter time.Duration
	temporary  bool
	err        error
}

func (e *deliveryError) Error() string {
	switch {
	case e.err != nil:
		return fmt.Sprintf("%s delivery failed: %v", e.target, e.err)
	case e.body != "":
		return fmt.Sprintf("%s delivery failed: %s (%s)", e.target, e.status, e.body)
	default:
		return fmt.Sprintf("%s delivery failed: %s", e.target, e.status)
	}
}

func (e *deliveryError) Unwrap() error {
	return e.err
}

// poster sends JSON payloads to one webhook URL.
type poster struct {
	logger zerolog.Logger
	target string
	url    string
	client *retryablehttp.Client
	policy deliveryPolicy

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newPoster(logger zerolog.Logger, target, url string, policy deliveryPolicy) *poster {
	client := retryablehttp.NewClient()
	// Retries are driven by deliver so that rate limits and Retry-After apply.
	client.RetryMax = 0
	client.CheckRetry = func(context.Context, *http.Response, error) (bool, error) {
		return false, nil
	}
	client.Logger = nil
	client.HTTPClient = &http.Client{
		Timeout:   policy.timeout,
		Transport: cleanhttp.DefaultPooledTransport(),
	}

	return &poster{
		logger:   logger.With().Str("target", target).Logger(),
		target:   target,
		url:      url,
		client:   client,
		policy:   policy,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (p *poster) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(p.policy.rateEvery), p.policy.rateBurst)
	p.limiters[host] = l
	return l
}

// deliver waits for the per-host rate limit and posts payload, retrying
// temporary failures with exponential backoff.
func (p *poster) deliver(ctx context.Context, host string, payload []byte) error {
	if err := p.limiter(host).Wait(ctx); err != nil {
		return err
	}

	attempt := func() error {
		err := p.send(ctx, payload)
		if err == nil {
			return nil
		}
		var derr *deliveryError
		if !errors.As(err, &derr) || !derr.temporary {
			return backoff.Permanent(err)
		}
		if derr.retryAfter > 0 && !sleepWithContext(ctx, derr.retryAfter) {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	onRetry := func(err error, wait time.Duration) {
		p.logger.Debug().Err(err).Str("host", host).Dur("wait", wait).Msg("notification delivery failed, retrying")
	}

	err := backoff.RetryNotify(attempt, p.policy.backOff(ctx), onRetry)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// send performs a single POST and classifies the response.
func (p *poster) send(ctx context.Context, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.policy.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", p.target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &deliveryError{target: p.target, temporary: true, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	derr := &deliveryError{
		target: p.target,
		status: resp.Status,
		body:   strings.TrimSpace(string(body)),
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		derr.temporary = true
		derr.retryAfter, _ = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	case resp.StatusCode >= http.StatusInternalServerError:
		derr.temporary = true
	}
	return derr
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	when, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	if wait := when.Sub(now); wait > 0 {
		return wait, true
	}
	return 0, false
}

func sleepWithContext(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
