package runner

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nholik/flash-sentinel/internal/collector"
	"github.com/nholik/flash-sentinel/internal/config"
	"github.com/nholik/flash-sentinel/internal/health"
	"github.com/nholik/flash-sentinel/internal/metrics"
	"github.com/nholik/flash-sentinel/internal/notify"
	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/section"
	"github.com/rs/zerolog"
)

// DefaultPageLimit is the page size requested from paginated endpoints.
const DefaultPageLimit = 1000

// notifyTimeout bounds failure delivery after the run context is gone.
const notifyTimeout = 30 * time.Second

var allStates = []health.State{health.StateOK, health.StateWarn, health.StateCrit, health.StateUnknown}

// Connector opens a session with an array.
type Connector func(ctx context.Context, opts purity.Options, logger zerolog.Logger, m *metrics.Metrics) (purity.Requester, error)

func connectPurity(ctx context.Context, opts purity.Options, logger zerolog.Logger, m *metrics.Metrics) (purity.Requester, error) {
	return purity.Connect(ctx, opts, logger, m)
}

// Runner executes one agent run: read the agent document, query the
// array and write both sections.
type Runner struct {
	logger         zerolog.Logger
	metrics        *metrics.Metrics
	metricsFile    string
	notifier       notify.Notifier
	connect        Connector
	customizations []config.HardwareCustomization
	requestTimeout time.Duration
	pageLimit      int
	product        config.Product
	now            func() time.Time
}

// sectionCollector builds the results and inventory sections of one product.
type sectionCollector interface {
	Results(ctx context.Context) (section.Results, error)
	Inventory(ctx context.Context) (section.Inventory, error)
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithMetricsFile writes the metrics registry to path after every run.
func WithMetricsFile(path string) Option {
	return func(r *Runner) {
		r.metricsFile = path
	}
}

// WithNotifier sets where aborted runs are reported.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) {
		r.notifier = n
	}
}

// WithConnector overrides how array sessions are opened.
func WithConnector(c Connector) Option {
	return func(r *Runner) {
		r.connect = c
	}
}

// WithCustomizations adds hardware customizations from a file. Entries in
// the agent document take precedence.
func WithCustomizations(items []config.HardwareCustomization) Option {
	return func(r *Runner) {
		r.customizations = items
	}
}

// WithRequestTimeout bounds each API request.
func WithRequestTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.requestTimeout = d
	}
}

// WithPageLimit overrides DefaultPageLimit.
func WithPageLimit(limit int) Option {
	return func(r *Runner) {
		r.pageLimit = limit
	}
}

// WithProduct selects the collector and section ids. FlashArray is the
// default.
func WithProduct(p config.Product) Option {
	return func(r *Runner) {
		r.product = p
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New constructs a Runner.
func New(logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger:    logger,
		connect:   connectPurity,
		pageLimit: DefaultPageLimit,
		product:   config.FlashArray,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notifier == nil {
		r.notifier = notify.NewNoop(logger, "")
	}
	return r
}

// Run performs one collection. Nothing is written to stdout unless both
// sections were built. The returned error is a *RunError.
func (r *Runner) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	runID := uuid.NewString()
	logger := r.logger.With().Str("run_id", runID).Logger()
	started := r.now()

	host, err := r.run(ctx, logger, stdin, stdout)
	r.metrics.ObserveRunDuration(r.now().Sub(started))

	if err != nil {
		phase := PhaseOf(err)
		r.metrics.IncRunFailures(phase)
		logger.Error().Err(err).Str("phase", phase).Str("host", host).Msg("agent run failed")
		r.notifyFailure(ctx, logger, notify.Failure{Host: host, Phase: phase, RunID: runID, Err: err, At: r.now()})
	} else {
		r.metrics.SetLastSuccessfulRunTimestamp(r.now())
		logger.Info().Str("host", host).Dur("duration", r.now().Sub(started)).Msg("agent run completed")
	}

	if r.metricsFile != "" {
		if werr := r.metrics.WriteTextfile(r.metricsFile); werr != nil {
			logger.Warn().Err(werr).Str("path", r.metricsFile).Msg("failed to write metrics file")
		}
	}
	return err
}

func (r *Runner) run(ctx context.Context, logger zerolog.Logger, stdin io.Reader, stdout io.Writer) (string, error) {
	agent, err := config.ParseAgent(stdin)
	if err != nil {
		return "", wrapRun(PhaseConfig, "", err)
	}
	host := agent.Host
	logger = logger.With().Str("host", host).Logger()

	client, err := r.connect(ctx, purity.Options{
		Host:      agent.Host,
		APIToken:  agent.APIToken,
		VerifyTLS: agent.VerifyTLS,
		CACert:    agent.CACert,
		Timeout:   r.requestTimeout,
	}, logger, r.metrics)
	if err != nil {
		return host, wrapRun(PhaseConnect, host, err)
	}
	logger.Debug().Str("product", string(r.product)).Msg("array session established")

	cfg := collector.ConfigFromAgent(agent, r.customizations)
	cfg.PageLimit = r.pageLimit
	cfg.Now = r.now
	c, resultsID, inventoryID := r.newCollector(client, cfg, logger)

	results, err := c.Results(ctx)
	if err != nil {
		return host, wrapRun(PhaseCollect, host, err)
	}
	inventory, err := c.Inventory(ctx)
	if err != nil {
		return host, wrapRun(PhaseInventory, host, err)
	}

	resultsBlock, err := section.NewBlock(resultsID, results)
	if err != nil {
		return host, wrapRun(PhaseEncode, host, err)
	}
	inventoryBlock, err := section.NewBlock(inventoryID, inventory)
	if err != nil {
		return host, wrapRun(PhaseEncode, host, err)
	}

	if err := section.Write(stdout, resultsBlock, inventoryBlock); err != nil {
		return host, wrapRun(PhaseWrite, host, err)
	}

	r.recordServices(logger, results)
	return host, nil
}

// newCollector returns the collector of the configured product and the ids of
// its sections.
func (r *Runner) newCollector(client purity.Requester, cfg collector.Config, logger zerolog.Logger) (sectionCollector, string, string) {
	if r.product == config.FlashBlade {
		src := collector.NewBladeSources(client, r.pageLimit, r.metrics)
		return collector.NewBlade(src, cfg, logger), section.BladeResultsID, section.BladeInventoryID
	}
	src := collector.NewSources(client, r.pageLimit, r.metrics)
	return collector.New(src, cfg, logger), section.ResultsID, section.InventoryID
}

func (r *Runner) recordServices(logger zerolog.Logger, results section.Results) {
	domains := make([]string, 0, len(results))
	for domain := range results {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	total := 0
	for _, domain := range domains {
		counts := results[domain].StateCounts()
		for _, state := range allStates {
			r.metrics.SetServicesTotal(domain, state.String(), counts[state])
			total += counts[state]
		}
	}
	logger.Debug().Int("services", total).Int("domains", len(domains)).Msg("sections written")
}

func (r *Runner) notifyFailure(ctx context.Context, logger zerolog.Logger, failure notify.Failure) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := r.notifier.Notify(notifyCtx, failure); err != nil {
		logger.Warn().Err(err).Msg("failed to deliver failure notification")
	}
}
