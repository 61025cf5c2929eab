package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aylabs/musicore/pkg/cache"
	"github.com/aylabs/musicore/pkg/engrave"
	"github.com/aylabs/musicore/pkg/observability"
	"github.com/aylabs/musicore/pkg/score"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Parse
	parseStart := time.Now()
	observability.Pipeline().OnParseStart(ctx)
	sc, err := r.ParseScore(ctx, opts)
	if err != nil {
		observability.Pipeline().OnParseComplete(ctx, 0, time.Since(parseStart), err)
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Score = sc
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NoteCount = countNotes(sc)
	observability.Pipeline().OnParseComplete(ctx, result.Stats.NoteCount, result.Stats.ParseTime, nil)

	// Compute score hash for cache keys and API responses
	if scoreData, err := MarshalScore(sc); err == nil {
		result.ScoreHash = cache.Hash(scoreData)
	}

	r.Logger.Info("parsed score",
		"instruments", len(sc.Instruments),
		"notes", result.Stats.NoteCount,
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, result.Stats.NoteCount)
	layout, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, sc, opts)
	if err != nil {
		observability.Pipeline().OnLayoutComplete(ctx, 0, 0, time.Since(layoutStart), err)
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.SystemCount = len(layout.Systems)
	result.Stats.GlyphCount = countGlyphs(layout)
	result.CacheInfo.LayoutHit = layoutHit
	observability.Pipeline().OnLayoutComplete(ctx, result.Stats.SystemCount, result.Stats.GlyphCount, result.Stats.LayoutTime, nil)

	r.Logger.Info("computed layout",
		"systems", result.Stats.SystemCount,
		"glyphs", result.Stats.GlyphCount,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	layoutJSON, err := MarshalLayout(layout)
	if err != nil {
		return nil, fmt.Errorf("serialize layout: %w", err)
	}
	result.LayoutJSON = layoutJSON

	return result, nil
}

// ParseScore loads and validates the score from the configured source.
func (r *Runner) ParseScore(ctx context.Context, opts Options) (*score.Score, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	return Parse(opts)
}

// ComputeLayoutWithCacheInfo computes a layout with caching and returns cache
// hit info. The cache key is derived from the score content hash and the
// layout configuration, so any change to either recomputes.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, sc *score.Score, opts Options) (*engrave.GlobalLayout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key
	scoreData, err := MarshalScore(sc)
	if err != nil {
		return nil, false, fmt.Errorf("serialize score for cache key: %w", err)
	}
	scoreHash := cache.Hash(scoreData)
	cacheKey := r.Keyer.LayoutKey(scoreHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := UnmarshalLayout(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	// Compute layout
	layout, err := engrave.ComputeLayout(sc, opts.Config)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := MarshalLayout(layout); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return layout, false, nil // Cache miss
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo
// and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, sc *score.Score, opts Options) (*engrave.GlobalLayout, error) {
	layout, _, err := r.ComputeLayoutWithCacheInfo(ctx, sc, opts)
	return layout, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
