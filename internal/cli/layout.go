package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aylabs/musicore/pkg/engrave"
	"github.com/aylabs/musicore/pkg/pipeline"
)

// layoutCommand creates the layout command for engraving a score.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		configPath string
		noCache    bool
		refresh    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [score.json]",
		Short: "Compute the engraving layout for a score",
		Long: `Compute the engraving layout for a score.

The layout command takes a score.json file (or an http(s) URL) and computes
the full spatial layout: systems, staves, glyph positions, beams, and
barlines. The output is a layout.json file ready for rendering.

Layout options come from flags, or from a TOML config file (--config,
default ~/.config/musicore/config.toml). Flags override the config file.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			mergeLayoutConfig(&opts, fileCfg, cmd)
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML config file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")

	// Layout flags
	cmd.Flags().Float64Var(&opts.Config.MaxSystemWidth, "width", 0, "maximum system width in layout units")
	cmd.Flags().Float64Var(&opts.Config.UnitsPerSpace, "units-per-space", 0, "layout units per staff space")
	cmd.Flags().Float64Var(&opts.Config.SystemSpacing, "system-spacing", 0, "vertical gap between systems")
	cmd.Flags().BoolVar(&opts.Config.StretchToFill, "stretch", false, "stretch full systems to the maximum width")

	return cmd
}

// mergeLayoutConfig applies config-file values for fields not set by flags.
func mergeLayoutConfig(opts *pipeline.Options, fileCfg fileConfig, cmd *cobra.Command) {
	if !cmd.Flags().Changed("width") && fileCfg.Layout.MaxSystemWidth != 0 {
		opts.Config.MaxSystemWidth = fileCfg.Layout.MaxSystemWidth
	}
	if !cmd.Flags().Changed("units-per-space") && fileCfg.Layout.UnitsPerSpace != 0 {
		opts.Config.UnitsPerSpace = fileCfg.Layout.UnitsPerSpace
	}
	if !cmd.Flags().Changed("system-spacing") && fileCfg.Layout.SystemSpacing != 0 {
		opts.Config.SystemSpacing = fileCfg.Layout.SystemSpacing
	}
	if !cmd.Flags().Changed("stretch") {
		opts.Config.StretchToFill = fileCfg.Layout.StretchToFill
	}
	if fileCfg.Layout.SystemHeight != 0 {
		opts.Config.SystemHeight = fileCfg.Layout.SystemHeight
	}
	if fileCfg.Layout.Spacing != (engrave.SpacingConfig{}) {
		opts.Config.Spacing = fileCfg.Layout.Spacing
	}
}

// runLayout executes the pipeline and writes the layout file.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	data, err := c.readScore(ctx, input)
	if err != nil {
		return fmt.Errorf("load score %s: %w", input, err)
	}
	opts.ScoreData = data
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Engraving score...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase(input) + ".layout.json"
	}

	data, err = pipeline.MarshalLayoutIndent(result.Layout)
	if err != nil {
		return fmt.Errorf("serialize layout: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.SystemCount, result.Stats.GlyphCount, result.CacheInfo.LayoutHit)

	return nil
}
