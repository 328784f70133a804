package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/store"
)

// presetCommand creates the preset management command.
func (c *CLI) presetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage stored transform parameters",
		Long: `Presets are named transform parameters: coefficients, color seeds,
variation weights and the grid size they were tuned for. Rendered frames
are never stored.`,
	}

	cmd.AddCommand(c.presetSaveCommand())
	cmd.AddCommand(c.presetListCommand())
	cmd.AddCommand(c.presetShowCommand())
	cmd.AddCommand(c.presetDeleteCommand())

	return cmd
}

// withPresets opens the store and runs fn with a preset catalog.
func (c *CLI) withPresets(cmd *cobra.Command, fn func(p *store.Presets) error) error {
	s, err := c.openStore(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(store.NewPresets(s, c.storeKeyer()))
}

// presetSaveCommand creates the "preset save" subcommand.
func (c *CLI) presetSaveCommand() *cobra.Command {
	var (
		flags    engineFlags
		fromFile string
	)
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Generate transforms from a seed, or read them from JSON, and store them",
		Example: `  flametower preset save spiral --seed 7
  flametower preset save imported --from params.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			var params flame.Params
			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return err
				}
				if params, err = flame.UnmarshalParams(data); err != nil {
					return err
				}
			} else {
				cfg, err := c.loadedConfig()
				if err != nil {
					return err
				}
				opts := flags.options(cmd, cfg.Engine)
				if !cmd.Flags().Changed("seed") && cfg.Engine.Seed == 0 {
					opts.Seed = uint64(time.Now().UnixNano())
				}
				if err := opts.ValidateAndSetDefaults(); err != nil {
					return err
				}
				e, err := flame.New(opts.EngineConfig())
				if err != nil {
					return err
				}
				params = e.Snapshot()
			}

			return c.withPresets(cmd, func(p *store.Presets) error {
				if err := p.Save(cmd.Context(), name, params); err != nil {
					return err
				}
				printSuccess("Saved preset %s", StyleHighlight.Render(name))
				printNextStep("View it", "flametower view --preset "+name)
				return nil
			})
		},
	}
	flags.register(cmd, "high")
	cmd.Flags().StringVar(&fromFile, "from", "", "read parameters from a JSON file")
	return cmd
}

// presetListCommand creates the "preset list" subcommand.
func (c *CLI) presetListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored presets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPresets(cmd, func(p *store.Presets) error {
				names, err := p.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(names) == 0 {
					printInfo("No presets stored")
					return nil
				}
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					params, err := p.Load(cmd.Context(), name)
					if err != nil {
						rows = append(rows, []string{name, "-", "-", StyleWarning.Render("unreadable")})
						continue
					}
					rows = append(rows, []string{
						name,
						fmt.Sprintf("%dx%d", params.Width, params.Height),
						fmt.Sprint(len(params.Transforms)),
						variationSummary(params),
					})
				}
				fmt.Println(StyleTitle.Render(fmt.Sprintf("Presets (%d)", len(names))))
				fmt.Println(renderTable([]string{"Name", "Size", "Transforms", "Variations"}, rows))
				return nil
			})
		},
	}
}

// presetShowCommand creates the "preset show" subcommand.
func (c *CLI) presetShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a preset as JSON",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: c.completePresetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPresets(cmd, func(p *store.Presets) error {
				params, err := p.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(params)
			})
		},
	}
}

// presetDeleteCommand creates the "preset delete" subcommand.
func (c *CLI) presetDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a preset",
		Args:    cobra.ExactArgs(1),

		ValidArgsFunction: c.completePresetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPresets(cmd, func(p *store.Presets) error {
				if err := p.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted preset %s", args[0])
				return nil
			})
		},
	}
}

// variationSummary lists the distinct variations used by the transforms.
func variationSummary(p flame.Params) string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range p.Transforms {
		for _, v := range t.Variations {
			if !seen[v] {
				seen[v] = true
				names = append(names, v)
			}
		}
	}
	return strings.Join(names, ", ")
}
