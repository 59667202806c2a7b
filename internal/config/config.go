package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envLogLevel               = "FS_LOG_LEVEL"
	envRequestTimeout         = "FS_REQUEST_TIMEOUT"
	envMetricsFile            = "FS_METRICS_FILE"
	envSlackWebhookURL        = "FS_SLACK_WEBHOOK_URL"
	envWebhookURL             = "FS_WEBHOOK_URL"
	envWebhookTemplate        = "FS_WEBHOOK_TEMPLATE"
	envNotifyDryRun           = "FS_NOTIFY_DRY_RUN"
	envHardwareCustomizations = "FS_HARDWARE_CUSTOMIZATIONS_FILE"
	envProduct                = "FS_PRODUCT"
)

const defaultLogLevel = "info"

// Product selects which Pure Storage system the agent talks to.
type Product string

// Supported products.
const (
	FlashArray Product = "flasharray"
	FlashBlade Product = "flashblade"
)

// ParseProduct accepts a product name, case-insensitively.
func ParseProduct(value string) (Product, error) {
	switch p := Product(strings.ToLower(strings.TrimSpace(value))); p {
	case FlashArray, FlashBlade:
		return p, nil
	default:
		return "", fmt.Errorf("unknown product %q (want %s or %s)", value, FlashArray, FlashBlade)
	}
}

// Config describes process settings loaded from the environment. The
// per-array agent document arrives separately on stdin, see ParseAgent.
type Config struct {
	LogLevel string
	// RequestTimeout bounds each API request. Zero leaves the transport default.
	RequestTimeout             time.Duration
	MetricsFile                string
	SlackWebhookURL            string
	WebhookURL                 string
	WebhookTemplate            string
	NotifyDryRun               bool
	HardwareCustomizationsFile string
	Product                    Product
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, configErr(".env", err)
	}

	cfg := Config{LogLevel: defaultLogLevel, Product: FlashArray}

	if value, ok := lookupTrimmed(envLogLevel); ok && value != "" {
		cfg.LogLevel = value
	}

	if value, ok := lookupTrimmed(envRequestTimeout); ok && value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, configErr(envRequestTimeout, err)
		}
		if timeout < 0 {
			return Config{}, configErr(envRequestTimeout, errors.New("must not be negative"))
		}
		cfg.RequestTimeout = timeout
	}

	if value, ok := lookupTrimmed(envMetricsFile); ok {
		cfg.MetricsFile = value
	}

	if value, ok := lookupTrimmed(envSlackWebhookURL); ok && value != "" {
		if err := validateURL(value, envSlackWebhookURL); err != nil {
			return Config{}, err
		}
		cfg.SlackWebhookURL = value
	}

	if value, ok := lookupTrimmed(envWebhookURL); ok && value != "" {
		if err := validateURL(value, envWebhookURL); err != nil {
			return Config{}, err
		}
		cfg.WebhookURL = value
	}

	if value, ok := lookupTrimmed(envWebhookTemplate); ok {
		cfg.WebhookTemplate = value
	}

	if value, ok := lookupTrimmed(envNotifyDryRun); ok && value != "" {
		dryRun, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, configErr(envNotifyDryRun, err)
		}
		cfg.NotifyDryRun = dryRun
	}

	if value, ok := lookupTrimmed(envHardwareCustomizations); ok {
		cfg.HardwareCustomizationsFile = value
	}

	if value, ok := lookupTrimmed(envProduct); ok && value != "" {
		product, err := ParseProduct(value)
		if err != nil {
			return Config{}, configErr(envProduct, err)
		}
		cfg.Product = product
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return configErr(name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return configErr(name, fmt.Errorf("must include scheme and host"))
	}
	return nil
}
