// Package dayrec is the top-level facade: it loads one user-day from an
// evidence source, synthesizes actual blocks, resolves the timeline by
// priority, and verifies every planned event against the evidence.
package dayrec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/dayrec-dev/dayrec/pkg/apps"
	"github.com/dayrec-dev/dayrec/pkg/evidence"
	"github.com/dayrec-dev/dayrec/pkg/synth"
	"github.com/dayrec-dev/dayrec/pkg/timeline"
	"github.com/dayrec-dev/dayrec/pkg/verify"
)

// EvidenceSource supplies one user-day of stored data. *store.Store
// satisfies it; tests use in-memory fakes.
type EvidenceSource interface {
	PlannedEventsForDay(ctx context.Context, userID, day string) ([]timeline.ScheduledEvent, error)
	EvidenceForDay(ctx context.Context, userID, day string) (*evidence.Bundle, error)
}

// DayResult is the full reconciled picture of one user-day.
type DayResult struct {
	UserID     string                    `json:"user_id"`
	Day        string                    `json:"day"`
	Timeline   []timeline.ScheduledEvent `json:"timeline"`
	Verdicts   map[string]verify.Result  `json:"verdicts"`
	Blocks     []synth.ActualBlock       `json:"blocks"`
	Validation timeline.Validation       `json:"validation"`
}

// Reconciler orchestrates the pipeline. Construct once, reconcile many days.
type Reconciler struct {
	source      EvidenceSource
	synthesizer *synth.Synthesizer
	verifier    *verify.Verifier
	minDuration int
	cache       *otter.Cache[string, *DayResult]
	logger      *slog.Logger
}

// Option configures a Reconciler.
type Option func(*reconcilerConfig)

type reconcilerConfig struct {
	catalog     verify.Catalog
	thresholds  verify.Thresholds
	overrides   apps.Overrides
	minDuration int
	cacheTTL    time.Duration
	noCache     bool
	logger      *slog.Logger
	synthOpts   []synth.Option
}

// WithLogger sets the logger used across the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(c *reconcilerConfig) { c.logger = logger }
}

// WithCatalog replaces the verification rule catalog.
func WithCatalog(cat verify.Catalog) Option {
	return func(c *reconcilerConfig) { c.catalog = cat }
}

// WithThresholds sets the confidence cutoffs (see verify.Strict etc).
func WithThresholds(t verify.Thresholds) Option {
	return func(c *reconcilerConfig) { c.thresholds = t }
}

// WithOverrides supplies per-user app classification overrides, shared by
// the synthesizer and the verifier.
func WithOverrides(ov apps.Overrides) Option {
	return func(c *reconcilerConfig) { c.overrides = ov }
}

// WithMinDuration sets the timeline builder's minimum surviving segment
// length in minutes.
func WithMinDuration(m int) Option {
	return func(c *reconcilerConfig) { c.minDuration = m }
}

// WithCacheTTL sets how long reconciled days stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *reconcilerConfig) { c.cacheTTL = ttl }
}

// WithoutCache disables the day-result cache entirely.
func WithoutCache() Option {
	return func(c *reconcilerConfig) { c.noCache = true }
}

// WithSynthOptions passes extra options through to the synthesizer.
func WithSynthOptions(opts ...synth.Option) Option {
	return func(c *reconcilerConfig) { c.synthOpts = append(c.synthOpts, opts...) }
}

// New builds a Reconciler over the given source.
func New(source EvidenceSource, opts ...Option) *Reconciler {
	cfg := &reconcilerConfig{
		catalog:    verify.DefaultCatalog(),
		thresholds: verify.DefaultThresholds,
		cacheTTL:   15 * time.Minute,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Reconciler{
		source:      source,
		minDuration: cfg.minDuration,
		logger:      cfg.logger,
		synthesizer: synth.NewSynthesizer(append([]synth.Option{
			synth.WithOverrides(cfg.overrides),
			synth.WithLogger(cfg.logger),
		}, cfg.synthOpts...)...),
		verifier: verify.NewVerifier(
			verify.WithCatalog(cfg.catalog),
			verify.WithThresholds(cfg.thresholds),
			verify.WithOverrides(cfg.overrides),
			verify.WithLogger(cfg.logger),
		),
	}
	if !cfg.noCache {
		r.cache = otter.Must(&otter.Options[string, *DayResult]{
			MaximumSize:      4_096,
			ExpiryCalculator: otter.ExpiryWriting[string, *DayResult](cfg.cacheTTL),
		})
	}
	return r
}

func cacheKey(userID, day string) string {
	return userID + "|" + day
}

// Reconcile runs the full pipeline for one user-day.
func (r *Reconciler) Reconcile(ctx context.Context, userID, day string) (*DayResult, error) {
	key := cacheKey(userID, day)
	if r.cache != nil {
		if cached, found := r.cache.GetIfPresent(key); found {
			r.logger.Debug("day result cache hit", "user", userID, "day", day)
			return cached, nil
		}
	}

	planned, err := r.source.PlannedEventsForDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("load planned events for %s/%s: %w", userID, day, err)
	}
	bundle, err := r.source.EvidenceForDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("load evidence for %s/%s: %w", userID, day, err)
	}

	annotated := r.synthesizer.Annotate(planned, bundle)
	blocks := r.synthesizer.DeriveBlocks(bundle, annotated)

	builder := timeline.NewBuilder(timeline.WithMinDuration(r.minDuration))
	builder.AddEvents(annotated)
	for _, blk := range blocks {
		builder.AddEvent(blk.Event())
	}
	resolved := builder.Build()

	validation := timeline.ValidateEvents(resolved)
	if !validation.Valid {
		// The builder guarantees non-overlap; a failure here means a bug,
		// not bad input. Log and carry on with what we have.
		r.logger.Warn("resolved timeline failed validation",
			"user", userID, "day", day, "overlaps", len(validation.Overlaps))
	}

	verdicts := make(map[string]verify.Result, len(annotated))
	for _, e := range annotated {
		verdicts[e.ID] = r.verifier.VerifyEvent(e, bundle)
	}

	result := &DayResult{
		UserID:     userID,
		Day:        day,
		Timeline:   resolved,
		Verdicts:   verdicts,
		Blocks:     blocks,
		Validation: validation,
	}
	if r.cache != nil {
		r.cache.Set(key, result)
	}
	r.logger.Info("day reconciled",
		"user", userID, "day", day,
		"events", len(resolved), "blocks", len(blocks))
	return result, nil
}

// Invalidate drops the cached result for one user-day, forcing the next
// Reconcile to recompute.
func (r *Reconciler) Invalidate(userID, day string) {
	if r.cache != nil {
		r.cache.Invalidate(cacheKey(userID, day))
	}
}
