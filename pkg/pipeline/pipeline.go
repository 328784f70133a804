// Package pipeline runs the flame engine headlessly.
//
// A headless run builds an [flame.Engine] from [Options], steps it until it
// freezes and reports statistics about the accumulated density grid. The
// CLI's run command and the HTTP server share this code so that both apply
// the same defaults and the same caching.
//
// # Usage
//
//	runner := pipeline.NewRunner(st, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Width:   256,
//	    Height:  256,
//	    Quality: "high",
//	    Seed:    7,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.Coverage)
//
// Results hold parameters and statistics only. Pixels are never returned or
// persisted.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/store"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed is the default random seed. Headless runs are seeded so that
	// identical options give identical results and can be cached.
	DefaultSeed = uint64(42)

	// DefaultQuality is the default quality mode name.
	DefaultQuality = "high"
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options contains all configuration for a headless run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Transforms   int    `json:"transforms,omitempty"`
	BurnIn       int    `json:"burn_in,omitempty"`
	WarmupPasses int    `json:"warmup_passes,omitempty"`
	Quality      string `json:"quality,omitempty"`
	Seed         uint64 `json:"seed,omitempty"`

	// Control, when set, reseeds the transforms in directed mode from this
	// point before running.
	Control *[2]float64 `json:"control,omitempty"`

	// Params, when set, replaces the generated transforms. Its size fills in
	// Width and Height when they are zero.
	Params *flame.Params `json:"params,omitempty"`

	// Refresh skips the cache lookup.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	quality   flame.Quality
	validated bool
}

// Result contains the outputs of a headless run.
type Result struct {
	// Params are the transform parameters the run ended with.
	Params flame.Params `json:"params"`

	// Stats describe the accumulated density grid.
	Stats Stats `json:"stats"`

	// CacheHit reports whether the result came from the store.
	CacheHit bool `json:"-"`
}

// Stats contains run statistics.
type Stats struct {
	Iterations   int           `json:"iterations"`
	TotalHits    int           `json:"total_hits"`
	PeakHits     int           `json:"peak_hits"`
	Coverage     float64       `json:"coverage"`
	LogFrequency float64       `json:"log_frequency"`
	Bounds       *flame.Bounds `json:"bounds,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Params != nil {
		if len(o.Params.Transforms) == 0 {
			return flameerrors.New(flameerrors.ErrCodeInvalidParams, "params contain no transforms")
		}
		if o.Width == 0 {
			o.Width = o.Params.Width
		}
		if o.Height == 0 {
			o.Height = o.Params.Height
		}
		if o.Transforms == 0 {
			o.Transforms = len(o.Params.Transforms)
		}
		if o.Transforms != len(o.Params.Transforms) {
			return flameerrors.New(flameerrors.ErrCodeInvalidParams,
				"transforms=%d does not match the %d transforms in params", o.Transforms, len(o.Params.Transforms))
		}
	}
	if o.Width == 0 {
		o.Width = flame.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = flame.DefaultHeight
	}
	if o.Transforms == 0 {
		o.Transforms = flame.DefaultTransforms
	}
	if o.BurnIn == 0 {
		o.BurnIn = flame.DefaultBurnIn
	}
	if o.WarmupPasses == 0 {
		o.WarmupPasses = flame.DefaultWarmupPasses
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Quality == "" {
		o.Quality = DefaultQuality
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := flameerrors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if err := flameerrors.ValidateWorkload(o.Transforms, o.WarmupPasses, o.BurnIn); err != nil {
		return err
	}
	q, err := flame.ParseQuality(o.Quality)
	if err != nil {
		return flameerrors.Wrap(flameerrors.ErrCodeInvalidQuality, err, "quality")
	}
	o.quality = q
	o.Quality = q.String()
	o.validated = true
	return nil
}

// EngineConfig returns the engine configuration for validated options.
func (o *Options) EngineConfig() flame.Config {
	return flame.Config{
		Width:        o.Width,
		Height:       o.Height,
		Transforms:   o.Transforms,
		BurnIn:       o.BurnIn,
		WarmupPasses: o.WarmupPasses,
		Quality:      o.quality,
		Seed:         o.Seed,
		Logger:       o.Logger,
	}
}

// RunKeyOpts returns cache key options for the run.
func (o *Options) RunKeyOpts() (store.RunKeyOpts, error) {
	opts := store.RunKeyOpts{
		Width:        o.Width,
		Height:       o.Height,
		Transforms:   o.Transforms,
		BurnIn:       o.BurnIn,
		WarmupPasses: o.WarmupPasses,
		Quality:      o.Quality,
		Seed:         o.Seed,
		Control:      o.Control,
	}
	if o.Params != nil {
		data, err := flame.MarshalParams(*o.Params)
		if err != nil {
			return store.RunKeyOpts{}, fmt.Errorf("hash params: %w", err)
		}
		opts.ParamsHash = store.Hash(data)
	}
	return opts, nil
}

// StatsFor collects statistics from an engine.
func StatsFor(e *flame.Engine, d time.Duration) Stats {
	g := e.Grid()
	s := Stats{
		Iterations:   e.Iterations(),
		TotalHits:    g.TotalHits(),
		PeakHits:     g.PeakHits(),
		Coverage:     g.Coverage(),
		LogFrequency: e.LogFrequency(),
		Duration:     d,
	}
	if b := e.Bounds(); !b.Empty() {
		s.Bounds = &b
	}
	return s
}
