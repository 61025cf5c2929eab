// Package pipeline provides the core engraving pipeline.
//
// This package implements the parse → layout flow shared by the CLI and the
// API server. By centralizing this logic, both entry points get identical
// caching behavior and identical layout output for identical input.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Parse: Decode and validate the score document
//  2. Layout: Compute the full engraving layout (systems, staves, glyphs)
//
// Layout results are cached keyed on the score content hash plus the layout
// configuration, so re-running with the same input is a cache read.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ScorePath: "prelude.json",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layoutJSON := result.LayoutJSON
//
// Run individual stages:
//
//	// Parse only
//	sc, err := runner.ParseScore(ctx, opts)
//
//	// Layout with an existing score
//	layout, err := runner.ComputeLayout(ctx, sc, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aylabs/musicore/pkg/cache"
	"github.com/aylabs/musicore/pkg/engrave"
	"github.com/aylabs/musicore/pkg/score"
)

// Options contains all configuration for the engraving pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// ScorePath is a path to a score JSON file (CLI usage).
	ScorePath string `json:"score_path,omitempty"`

	// ScoreData is raw score JSON (API usage). Takes precedence over ScorePath.
	ScoreData []byte `json:"-"`

	// Score is a pre-parsed score. Takes precedence over ScoreData and
	// ScorePath; Validate is assumed to have been called already.
	Score *score.Score `json:"-"`

	// Config controls layout geometry. Zero-valued fields are filled with
	// defaults before validation.
	Config engrave.LayoutConfig `json:"config"`

	// Refresh bypasses the layout cache and overwrites the cached entry.
	Refresh bool `json:"refresh,omitempty"`

	// Logger receives stage-level progress output.
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Score is the parsed score document.
	Score *score.Score

	// ScoreHash is the content hash of the canonical score encoding.
	ScoreHash string

	// Layout is the computed engraving layout.
	Layout *engrave.GlobalLayout

	// LayoutJSON is the serialized layout, suitable for API responses and
	// file output.
	LayoutJSON []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NoteCount   int
	SystemCount int
	GlyphCount  int
	ParseTime   time.Duration
	LayoutTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks that a score source is available.
func (o *Options) ValidateForParse() error {
	if o.Score == nil && len(o.ScoreData) == 0 && o.ScorePath == "" {
		return fmt.Errorf("score, score data, or score path is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults fills zero-valued config fields with defaults.
func (o *Options) SetLayoutDefaults() {
	d := engrave.DefaultLayoutConfig()
	if o.Config.MaxSystemWidth == 0 {
		o.Config.MaxSystemWidth = d.MaxSystemWidth
	}
	if o.Config.UnitsPerSpace == 0 {
		o.Config.UnitsPerSpace = d.UnitsPerSpace
	}
	if o.Config.SystemSpacing == 0 {
		o.Config.SystemSpacing = d.SystemSpacing
	}
	if o.Config.SystemHeight == 0 {
		o.Config.SystemHeight = d.SystemHeight
	}
	if o.Config.Spacing == (engrave.SpacingConfig{}) {
		o.Config.Spacing = d.Spacing
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return o.Config.Validate()
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		MaxSystemWidth: o.Config.MaxSystemWidth,
		UnitsPerSpace:  o.Config.UnitsPerSpace,
		SystemSpacing:  o.Config.SystemSpacing,
		SystemHeight:   o.Config.SystemHeight,
		StretchToFill:  o.Config.StretchToFill,
		BaseSpacing:    o.Config.Spacing.BaseSpacing,
		DurationFactor: o.Config.Spacing.DurationFactor,
		MinimumSpacing: o.Config.Spacing.MinimumSpacing,
	}
}
