package flame

import (
	"context"
	"image"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
	"github.com/matzehuels/flametower/pkg/observability"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth is the default grid and frame width in pixels.
	DefaultWidth = 512

	// DefaultHeight is the default grid and frame height in pixels.
	DefaultHeight = 512

	// DefaultTransforms is the number of transforms an engine owns.
	DefaultTransforms = 3

	// DefaultWarmupPasses is the number of discarded bounds-estimation passes
	// run on every rerender.
	DefaultWarmupPasses = 4
)

// NoBurnIn requests a burn-in of zero iterations. A zero BurnIn field takes
// [DefaultBurnIn].
const NoBurnIn = -1

// Config configures an Engine. Zero fields take the defaults above.
type Config struct {
	Width      int
	Height     int
	Transforms int

	// BurnIn is the number of leading iterations of every chaos game that are
	// not recorded. Use NoBurnIn to record from the first iteration.
	BurnIn       int
	WarmupPasses int
	Quality      Quality

	// Seed seeds the engine's random source. Zero picks a time-based seed.
	Seed uint64

	Logger *log.Logger
}

func (c *Config) setDefaults() {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.Transforms == 0 {
		c.Transforms = DefaultTransforms
	}
	if c.BurnIn == 0 {
		c.BurnIn = DefaultBurnIn
	}
	if c.WarmupPasses == 0 {
		c.WarmupPasses = DefaultWarmupPasses
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks the configuration.
func (c *Config) Validate() error {
	c.setDefaults()
	if err := flameerrors.ValidateDimensions(c.Width, c.Height); err != nil {
		return err
	}
	if err := flameerrors.ValidateWorkload(c.Transforms, c.WarmupPasses, c.BurnIn); err != nil {
		return err
	}
	if c.Quality != HighQuality && c.Quality != Interactive {
		return flameerrors.New(flameerrors.ErrCodeInvalidQuality, "unknown quality %d", int(c.Quality))
	}
	return nil
}

// burnIn returns the effective burn-in.
func (c *Config) burnIn() int {
	if c.BurnIn == NoBurnIn {
		return 0
	}
	return c.BurnIn
}

// =============================================================================
// Engine
// =============================================================================

// Engine owns the transforms, the density grid, the bounds and the walker,
// and advances the render one bounded step at a time.
type Engine struct {
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger

	transforms []*Transform
	probs      []float64

	walker Walker
	bounds Bounds
	grid   *Grid
	frame  *image.RGBA

	quality  Quality
	games    int
	maxIters int
	iters    int
	frozen   bool
	logFreq  float64
}

// New creates an engine and starts its first render cycle from a random
// control point.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		logger: cfg.Logger,
		grid:   NewGrid(cfg.Width, cfg.Height),
		frame:  image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
	}
	e.transforms = make([]*Transform, cfg.Transforms)
	for i := range e.transforms {
		e.transforms[i] = NewTransform(e.rng)
	}
	e.walker.Reseed(e.rng, cfg.Width, cfg.Height)
	e.probs = selectionProbabilities(e.rng, len(e.transforms))
	e.SetQuality(cfg.Quality)

	e.RestartAt(e.rng.Float64()*float64(cfg.Width), e.rng.Float64()*float64(cfg.Height))
	return e, nil
}

// selectionProbabilities draws a decreasing probability per transform.
// Transform selection is uniform; these values are only reported.
func selectionProbabilities(rng *rand.Rand, n int) []float64 {
	probs := make([]float64, n)
	tot := 0.0
	for i := range probs {
		probs[i] = rng.Float64() * (1 - tot) / float64(n)
		tot += probs[i]
	}
	return probs
}

// Restart reseeds every transform with random coefficients and weights and
// begins a new render cycle.
func (e *Engine) Restart() {
	for _, t := range e.transforms {
		t.RandomCoefficients(e.rng)
		t.RandomWeights(e.rng)
	}
	observability.Engine().OnRestart(false)
	e.logger.Debug("restart", "mode", "random")
	e.Rerender()
}

// RestartAt reseeds every transform from the control point (mx, my) with
// fresh random weights and begins a new render cycle. Degenerate control
// points are accepted.
func (e *Engine) RestartAt(mx, my float64) {
	for i, t := range e.transforms {
		t.DirectedCoefficients(mx, my, i)
		t.RandomWeights(e.rng)
	}
	observability.Engine().OnRestart(true)
	e.logger.Debug("restart", "mode", "directed", "mx", mx, "my", my)
	e.Rerender()
}

// SetQuality switches the step workload and freeze threshold. It does not
// restart the current render cycle.
func (e *Engine) SetQuality(q Quality) {
	e.quality = q
	e.games = q.GamesPerStep()
	e.maxIters = q.MaxIterations()
}

// Rerender re-estimates the bounds, clears the grid and unfreezes the engine.
// Transforms are left as they are.
func (e *Engine) Rerender() {
	start := time.Now()

	e.bounds = EmptyBounds()
	samples := 0
	for i := 0; i < e.cfg.WarmupPasses; i++ {
		e.walker.Reseed(e.rng, e.cfg.Width, e.cfg.Height)
		samples += EstimateBounds(e.rng, e.transforms, &e.walker, e.games, e.cfg.burnIn(), &e.bounds)
	}
	empty := e.bounds.Empty()
	if empty {
		e.logger.Warn("bounds estimation took no samples", "games", e.games, "burn_in", e.cfg.burnIn())
	}

	e.grid.Reset()
	e.iters = 0
	e.frozen = false
	e.logFreq = 0

	observability.Engine().OnRerender(samples, empty, time.Since(start))
	e.logger.Debug("rerender",
		"lx", e.bounds.LX, "hx", e.bounds.HX,
		"ly", e.bounds.LY, "hy", e.bounds.HY,
		"samples", samples)
}

// Step advances the render by one accumulation step unless the engine is
// frozen, then maps the grid into the frame buffer and returns it. The
// returned image is owned by the engine and overwritten by the next Step.
func (e *Engine) Step() *image.RGBA {
	if !e.frozen {
		start := time.Now()
		hits := Accumulate(e.rng, e.transforms, &e.walker, e.grid, e.bounds, e.games, e.cfg.burnIn())
		e.iters++
		if e.iters > e.maxIters {
			e.frozen = true
			observability.Engine().OnFrozen(e.iters)
			e.logger.Debug("frozen", "iterations", e.iters, "peak_hits", e.grid.PeakHits())
		}
		e.logFreq = PeakLogFrequency(e.grid)
		observability.Engine().OnStep(e.iters, hits, time.Since(start))
	}
	MapGrid(e.grid, e.logFreq, e.frame)
	return e.frame
}

// Run steps the engine until it freezes or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	for !e.frozen {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.Step()
	}
	return nil
}

// =============================================================================
// Accessors
// =============================================================================

// Frame returns the frame buffer as of the last Step.
func (e *Engine) Frame() *image.RGBA { return e.frame }

// Frozen reports whether the engine has stopped accumulating.
func (e *Engine) Frozen() bool { return e.frozen }

// Iterations returns the number of accumulation steps since the last rerender.
func (e *Engine) Iterations() int { return e.iters }

// MaxIterations returns the step count after which the engine freezes.
func (e *Engine) MaxIterations() int { return e.maxIters }

// GamesPerStep returns the number of chaos-game iterations per step.
func (e *Engine) GamesPerStep() int { return e.games }

// Quality returns the current quality mode.
func (e *Engine) Quality() Quality { return e.quality }

// Bounds returns the current projection bounds.
func (e *Engine) Bounds() Bounds { return e.bounds }

// Grid returns the density grid. Callers must not modify it.
func (e *Engine) Grid() *Grid { return e.grid }

// LogFrequency returns ln of the peak hit count from the last step.
func (e *Engine) LogFrequency() float64 { return e.logFreq }

// Walker returns the current chaos-game point.
func (e *Engine) Walker() Walker { return e.walker }

// Transforms returns the engine's transforms. Callers must not modify them.
func (e *Engine) Transforms() []*Transform { return e.transforms }

// Probabilities returns the per-transform selection probabilities drawn at
// construction. Selection ignores them and stays uniform.
func (e *Engine) Probabilities() []float64 {
	return append([]float64(nil), e.probs...)
}

// Size returns the grid dimensions.
func (e *Engine) Size() (int, int) { return e.cfg.Width, e.cfg.Height }
