package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flametower/pkg/pipeline"
	"github.com/matzehuels/flametower/pkg/store"
)

// engineFlags holds the engine flags shared by run and view.
type engineFlags struct {
	width        int
	height       int
	transforms   int
	burnIn       int
	warmupPasses int
	quality      string
	seed         uint64
	preset       string
}

func (f *engineFlags) register(cmd *cobra.Command, defaultQuality string) {
	cmd.Flags().IntVar(&f.width, "width", 0, "grid width in pixels (default 512)")
	cmd.Flags().IntVar(&f.height, "height", 0, "grid height in pixels (default 512)")
	cmd.Flags().IntVar(&f.transforms, "transforms", 0, "number of transforms (default 3)")
	cmd.Flags().IntVar(&f.burnIn, "burn-in", 0, "chaos-game iterations discarded per game (default 40, -1 for none)")
	cmd.Flags().IntVar(&f.warmupPasses, "warmup", 0, "bounds-estimation passes per rerender (default 4)")
	cmd.Flags().StringVarP(&f.quality, "quality", "q", defaultQuality, "quality mode: high or interactive")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVarP(&f.preset, "preset", "p", "", "start from a stored preset")
}

// options merges config file defaults with the flags that were set.
func (f *engineFlags) options(cmd *cobra.Command, cfg EngineConfig) pipeline.Options {
	opts := pipeline.Options{
		Width:        cfg.Width,
		Height:       cfg.Height,
		Transforms:   cfg.Transforms,
		BurnIn:       cfg.BurnIn,
		WarmupPasses: cfg.WarmupPasses,
		Quality:      cfg.Quality,
		Seed:         cfg.Seed,
	}
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("width") {
		opts.Width = f.width
	}
	if set("height") {
		opts.Height = f.height
	}
	if set("transforms") {
		opts.Transforms = f.transforms
	}
	if set("burn-in") {
		opts.BurnIn = f.burnIn
	}
	if set("warmup") {
		opts.WarmupPasses = f.warmupPasses
	}
	if set("quality") || opts.Quality == "" {
		opts.Quality = f.quality
	}
	if set("seed") {
		opts.Seed = f.seed
	}
	return opts
}

// runCommand creates the headless run command.
func (c *CLI) runCommand() *cobra.Command {
	var (
		flags      engineFlags
		control    []float64
		noStore    bool
		refresh    bool
		jsonOutput bool
		saveAs     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render a flame headlessly and print its statistics",
		Long: `Run builds an engine, steps it until it freezes and prints statistics
about the accumulated density grid. Results are cached by their options.

No image is written; use "view" or "serve" to look at a flame.`,
		Example: `  flametower run --seed 7
  flametower run --control 120,340 --quality interactive
  flametower run --preset spiral --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadedConfig()
			if err != nil {
				return err
			}
			opts := flags.options(cmd, cfg.Engine)
			opts.Refresh = refresh
			if len(control) > 0 {
				if len(control) != 2 {
					return fmt.Errorf("--control needs two values, got %d", len(control))
				}
				opts.Control = &[2]float64{control[0], control[1]}
			}

			runner, err := c.newRunner(ctx, noStore)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			spinner := newSpinnerWithContext(ctx, "Loading preset...")
			if !jsonOutput {
				spinner.Start()
			}
			defer spinner.Stop()

			if flags.preset != "" {
				p, err := store.NewPresets(runner.Store, runner.Keyer).Load(ctx, flags.preset)
				if err != nil {
					return err
				}
				opts.Params = &p
			}

			spinner.SetMessage(fmt.Sprintf("Rendering (%s)...", opts.Quality))
			result, err := runner.Execute(ctx, opts)
			spinner.Stop()
			if spinner.Cancelled() {
				return ctx.Err()
			}
			if err != nil {
				return err
			}

			if saveAs != "" {
				if err := store.NewPresets(runner.Store, runner.Keyer).Save(ctx, saveAs, result.Params); err != nil {
					return err
				}
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			prog.done(fmt.Sprintf("Rendered %d steps", result.Stats.Iterations))
			printSuccess("Flame rendered")
			printRunStats(result.Stats, result.CacheHit)
			if saveAs != "" {
				printNextStep("View it", "flametower view --preset "+saveAs)
			}
			return nil
		},
	}

	flags.register(cmd, pipeline.DefaultQuality)
	cmd.Flags().Float64SliceVar(&control, "control", nil, "control point mx,my for a directed restart")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the store (no caching, no presets)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&saveAs, "save", "", "save the resulting parameters as a preset")

	return cmd
}
