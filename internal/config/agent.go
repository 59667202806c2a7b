package config

import (
	"bytes"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/nholik/flash-sentinel/internal/health"
)

// Threshold defaults.
var (
	DefaultArrayLevels       = health.Levels{Warn: 80, Crit: 90}
	DefaultCertificateLevels = health.Levels{Warn: 90, Crit: 30}
	DefaultSpaceLevels       = health.Levels{Warn: 80, Crit: 90}
)

// Agent is the per-array configuration read from stdin.
type Agent struct {
	Host      string
	APIToken  string
	VerifyTLS bool
	CACert    string
	// Alerts is nil when alerts are not collected.
	Alerts       *health.AlertPolicy
	Array        health.Levels
	Certificates health.Levels
	Hardware     []HardwareCustomization
	// Space levels are percent used per FlashBlade space scope.
	ArraySpace       health.Levels
	FilesystemSpace  health.Levels
	ObjectstoreSpace health.Levels
}

type agentDocument struct {
	Host         string                  `json:"host"`
	APIToken     string                  `json:"api_token"`
	VerifyTLS    *bool                   `json:"verify_tls"`
	CACert       string                  `json:"cacert"`
	Alerts       *alertsDocument         `json:"alerts"`
	Array        *health.Levels          `json:"array"`
	Certificates *health.Levels          `json:"certificates"`
	Hardware     []HardwareCustomization `json:"hardware"`

	ArraySpace       *health.Levels `json:"array_space"`
	FilesystemSpace  *health.Levels `json:"filesystem_space"`
	ObjectstoreSpace *health.Levels `json:"objectstore_space"`
}

type alertsDocument struct {
	ClosedAlertsLifetime *float64 `json:"closed_alerts_lifetime"`
	Info                 bool     `json:"info"`
	Warning              bool     `json:"warning"`
	Critical             bool     `json:"critical"`
	Hidden               bool     `json:"hidden"`
}

// ParseAgent reads and validates one agent document. Every failure is a
// *ConfigurationError.
func ParseAgent(r io.Reader) (Agent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Agent{}, configErr("stdin", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Agent{}, configErr("stdin", errors.New("no configuration document"))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc agentDocument
	if err := dec.Decode(&doc); err != nil {
		return Agent{}, configErr("stdin", fmt.Errorf("decode: %w", err))
	}
	if dec.More() {
		return Agent{}, configErr("stdin", errors.New("trailing data after configuration document"))
	}

	return doc.resolve()
}

func (d agentDocument) resolve() (Agent, error) {
	agent := Agent{
		Host:         strings.TrimSpace(d.Host),
		APIToken:     strings.TrimSpace(d.APIToken),
		VerifyTLS:    true,
		CACert:       d.CACert,
		Array:        DefaultArrayLevels,
		Certificates: DefaultCertificateLevels,
		Hardware:     d.Hardware,

		ArraySpace:       levelsOr(d.ArraySpace, DefaultSpaceLevels),
		FilesystemSpace:  levelsOr(d.FilesystemSpace, DefaultSpaceLevels),
		ObjectstoreSpace: levelsOr(d.ObjectstoreSpace, DefaultSpaceLevels),
	}

	if agent.Host == "" {
		return Agent{}, configErr("host", errors.New("is required"))
	}
	if agent.APIToken == "" {
		return Agent{}, configErr("api_token", errors.New("is required"))
	}

	if d.VerifyTLS != nil {
		agent.VerifyTLS = *d.VerifyTLS
	}
	if agent.VerifyTLS {
		if strings.TrimSpace(agent.CACert) == "" {
			return Agent{}, configErr("cacert", errors.New("is required when verify_tls is enabled"))
		}
		if !x509.NewCertPool().AppendCertsFromPEM([]byte(agent.CACert)) {
			return Agent{}, configErr("cacert", errors.New("contains no PEM certificate"))
		}
	}

	if d.Array != nil {
		agent.Array = *d.Array
	}
	if d.Certificates != nil {
		agent.Certificates = *d.Certificates
	}

	if d.Alerts != nil {
		policy := health.AlertPolicy{
			ClosedLifetime: health.DefaultClosedAlertsLifetime,
			Info:           d.Alerts.Info,
			Warning:        d.Alerts.Warning,
			Critical:       d.Alerts.Critical,
			Hidden:         d.Alerts.Hidden,
		}
		if lifetime := d.Alerts.ClosedAlertsLifetime; lifetime != nil {
			lifetime, err := closedLifetime(*lifetime)
			if err != nil {
				return Agent{}, configErr("alerts.closed_alerts_lifetime", err)
			}
			policy.ClosedLifetime = lifetime
		}
		agent.Alerts = &policy
	}

	if err := validateCustomizations(agent.Hardware); err != nil {
		return Agent{}, configErr("hardware", err)
	}

	return agent, nil
}

func levelsOr(levels *health.Levels, fallback health.Levels) health.Levels {
	if levels == nil {
		return fallback
	}
	return *levels
}

// maxLifetimeSeconds is the largest lifetime a time.Duration can hold.
const maxLifetimeSeconds = float64(math.MaxInt64) / float64(time.Second)

func closedLifetime(seconds float64) (time.Duration, error) {
	switch {
	case math.IsNaN(seconds) || math.IsInf(seconds, 0):
		return 0, errors.New("must be a finite number of seconds")
	case seconds < 0:
		return 0, errors.New("must not be negative")
	case seconds >= maxLifetimeSeconds:
		return 0, fmt.Errorf("must be below %.0f seconds", maxLifetimeSeconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
