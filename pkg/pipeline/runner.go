package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/observability"
	"github.com/matzehuels/flametower/pkg/store"
)

// Runner encapsulates headless execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the store and logger - it doesn't
// keep engines between runs. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Store  store.Store
	Keyer  store.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given store and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If s is nil, a NullStore is used (caching disabled).
func NewRunner(s store.Store, keyer store.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = store.NewDefaultKeyer()
	}
	if s == nil {
		s = store.NewNullStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  s,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute builds an engine, steps it until it freezes and returns its
// statistics. Results are cached by the options that determine them.
func (r *Runner) Execute(ctx context.Context, opts Options) (result *Result, err error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	observability.Pipeline().OnRunStart(ctx, opts.Width, opts.Height, opts.Quality)
	defer func() {
		iters := 0
		if result != nil {
			iters = result.Stats.Iterations
		}
		observability.Pipeline().OnRunComplete(ctx, iters, durationOf(result), err)
	}()

	keyOpts, err := opts.RunKeyOpts()
	if err != nil {
		return nil, err
	}
	cacheKey := r.Keyer.RunKey(keyOpts)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Store.Get(ctx, cacheKey); err == nil && hit {
			var cached Result
			if err := json.Unmarshal(data, &cached); err == nil {
				cached.CacheHit = true
				r.Logger.Debug("run cache hit", "key", cacheKey)
				return &cached, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}

	result, err = r.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := r.Store.Set(ctx, cacheKey, data, store.TTLRun); err != nil {
			r.Logger.Warn("failed to cache run", "error", err)
		}
	}
	return result, nil
}

// Run executes a run without consulting the store.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	engine, err := r.NewEngine(opts)
	if err != nil {
		return nil, err
	}
	if err := engine.Run(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, flameerrors.Wrap(flameerrors.ErrCodeTimeout, err,
				"run stopped after %d of %d steps", engine.Iterations(), engine.MaxIterations()+1)
		}
		return nil, fmt.Errorf("run: %w", err)
	}

	result := &Result{
		Params: engine.Snapshot(),
		Stats:  StatsFor(engine, time.Since(start)),
	}
	r.Logger.Info("run complete",
		"iterations", result.Stats.Iterations,
		"hits", result.Stats.TotalHits,
		"coverage", fmt.Sprintf("%.1f%%", 100*result.Stats.Coverage),
		"duration", result.Stats.Duration)
	return result, nil
}

// NewEngine builds an engine for validated options, applying Params and
// Control when set.
func (r *Runner) NewEngine(opts Options) (*flame.Engine, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	engine, err := flame.New(opts.EngineConfig())
	if err != nil {
		return nil, err
	}
	if opts.Params != nil {
		if err := engine.Load(*opts.Params); err != nil {
			return nil, err
		}
	}
	if opts.Control != nil {
		engine.RestartAt(opts.Control[0], opts.Control[1])
	}
	return engine, nil
}

// Close releases resources held by the runner (primarily the store).
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

func durationOf(r *Result) time.Duration {
	if r == nil {
		return 0
	}
	return r.Stats.Duration
}
