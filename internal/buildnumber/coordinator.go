package buildnumber

import (
	"fmt"
	"log/slog"
	"time"
)

// -------------------------------------------------------------------------
// Collaborators
// -------------------------------------------------------------------------

// Extractor reads metadata from the repository enclosing dir.
type Extractor interface {
	Extract(dir string) (Record, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(dir string) (Record, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(dir string) (Record, error) {
	return f(dir)
}

// MetricsReporter receives resolve outcomes. Implementations must be safe
// for concurrent use.
type MetricsReporter interface {
	// RecordResolve counts one Resolve call by outcome label.
	RecordResolve(outcome string)
	// RecordDegraded counts one degradation by reason label.
	RecordDegraded(reason string)
	// ObserveExtraction records the latency of one successful extraction.
	ObserveExtraction(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordResolve(string)            {}
func (noopMetrics) RecordDegraded(string)           {}
func (noopMetrics) ObserveExtraction(time.Duration) {}

// -------------------------------------------------------------------------
// Outcome
// -------------------------------------------------------------------------

// Outcome describes how a Resolve call produced its values.
type Outcome uint8

const (
	// OutcomeDegraded means the Unknown placeholders were published.
	OutcomeDegraded Outcome = iota
	// OutcomeExtracted means this call performed the extraction and populated the cache.
	OutcomeExtracted
	// OutcomeCached means the values were served from the cache.
	OutcomeCached
)

// String returns the outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeExtracted:
		return "extracted"
	case OutcomeCached:
		return "cached"
	case OutcomeDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// -------------------------------------------------------------------------
// Coordinator
// -------------------------------------------------------------------------

// Request describes one module's resolve call.
type Request struct {
	// Directory is where repository discovery starts.
	Directory string
	// Names are the output keys. Empty fields use the git.* defaults.
	Names PropertyNames
	// Expression is the optional custom buildnumber expression. It is only
	// evaluated by the call that populates the cache; later callers get the
	// first caller's composite buildnumber whatever they configure here.
	Expression string
}

// Coordinator extracts metadata once and shares it between callers.
// It is safe for concurrent use.
type Coordinator struct {
	extractor Extractor
	evaluator Evaluator
	cache     *Cache
	logger    *slog.Logger
	metrics   MetricsReporter
}

// Option configures optional Coordinator parameters.
type Option func(*Coordinator)

// WithEvaluator sets the evaluator for custom buildnumber expressions.
// Without one, any non-blank expression fails with ErrNoEvaluator.
func WithEvaluator(ev Evaluator) Option {
	return func(c *Coordinator) {
		c.evaluator = ev
	}
}

// WithMetrics sets the MetricsReporter. If mr is nil, a no-op reporter is used.
func WithMetrics(mr MetricsReporter) Option {
	return func(c *Coordinator) {
		if mr != nil {
			c.metrics = mr
		}
	}
}

// WithCache makes the Coordinator share an existing Cache. Coordinators
// sharing a Cache extract at most once between them.
func WithCache(cache *Cache) Option {
	return func(c *Coordinator) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// NewCoordinator creates a Coordinator with an empty cache.
func NewCoordinator(extractor Extractor, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Coordinator{
		extractor: extractor,
		cache:     &Cache{},
		logger:    logger,
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve publishes the five build properties for req into store.
//
// The first successful call extracts and caches; every later call copies the
// cached values without touching the repository. On any failure the Unknown
// placeholders are published and the cache is left as it was, so a failed
// extraction is retried by the next caller. Resolve never panics on
// collaborator failures and always writes all five keys.
func (c *Coordinator) Resolve(req Request, store PropertyStore) (outcome Outcome) {
	names := req.Names.WithDefaults()

	defer func() {
		if r := recover(); r != nil {
			c.degrade(fmt.Errorf("%w: %v", ErrUnexpected, r), names, store)
			outcome = OutcomeDegraded
		}
	}()

	values, outcome, err := c.resolve(req)
	if err != nil {
		c.degrade(err, names, store)
		return OutcomeDegraded
	}

	values.Publish(store, names)
	c.metrics.RecordResolve(outcome.String())
	return outcome
}

// resolve returns the values for req, or the error that prevents them.
func (c *Coordinator) resolve(req Request) (Values, Outcome, error) {
	entry, fresh, err := c.cache.PopulateOnce(func() (Entry, error) {
		return c.extract(req)
	})
	if err != nil {
		return Values{}, OutcomeDegraded, err
	}

	if entry.Record.Revision == "" {
		return Values{}, OutcomeDegraded, ErrCacheConsistency
	}

	if fresh {
		return entry.Record.Values(entry.Buildnumber), OutcomeExtracted, nil
	}

	c.logger.Debug("serving cached git info",
		slog.String("directory", req.Directory),
		slog.String("buildnumber", entry.Buildnumber),
	)
	return entry.Record.Values(entry.Buildnumber), OutcomeCached, nil
}

// extract runs the extractor and the formatter. It is called under the cache
// lock, so the entry becomes visible only once both have succeeded.
func (c *Coordinator) extract(req Request) (Entry, error) {
	start := time.Now()

	rec, err := c.extractor.Extract(req.Directory)
	if err != nil {
		return Entry{}, fmt.Errorf("%w from %s: %w", ErrExtraction, req.Directory, err)
	}
	if rec.Revision == "" {
		return Entry{}, fmt.Errorf("%w from %s: %w", ErrExtraction, req.Directory, ErrEmptyRevision)
	}

	bn, err := Format(rec, req.Expression, c.evaluator)
	if err != nil {
		return Entry{}, err
	}

	c.metrics.ObserveExtraction(time.Since(start))
	c.logger.Info("git info extracted",
		slog.String("short_revision", rec.ShortRevision),
		slog.String("branch", rec.Branch),
		slog.String("tag", rec.Tag),
		slog.Int("commits_count", rec.CommitsCount),
		slog.String("buildnumber", bn),
	)

	return Entry{Record: rec, Buildnumber: bn}, nil
}

// degrade logs err, counts it, and publishes the Unknown set.
func (c *Coordinator) degrade(err error, names PropertyNames, store PropertyStore) {
	reason := DegradeReason(err)

	if reason == ReasonCacheConsistency {
		// A module can run without the module that populated the cache,
		// e.g. a partial multi-module build.
		c.logger.Info("cannot extract git info, cached entry is incomplete",
			slog.String("error", err.Error()),
		)
	} else {
		c.logger.Error("git info unavailable, using unknown placeholders",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}

	c.metrics.RecordDegraded(reason)
	c.metrics.RecordResolve(OutcomeDegraded.String())
	Unknown().Publish(store, names)
}
