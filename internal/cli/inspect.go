package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aylabs/musicore/pkg/inspect"
	"github.com/aylabs/musicore/pkg/score"
)

// inspectCommand creates the inspect command for visualizing score structure.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [score.json]",
		Short: "Render the structure of a score as a diagram",
		Long: `Render the structure of a score as a diagram.

The inspect command draws the score hierarchy (instruments, staves, voices)
as a Graphviz diagram. Useful for debugging imported scores before engraving
them.

Formats: dot (Graphviz source), svg (rendered).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "dot" && format != "svg" {
				return fmt.Errorf("invalid format: %q (must be dot or svg)", format)
			}
			return c.runInspect(cmd.Context(), args[0], output, format, detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg (default), dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include clef, key, and time signature labels")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input, output, format string, detailed bool) error {
	data, err := c.readScore(ctx, input)
	if err != nil {
		return fmt.Errorf("load score %s: %w", input, err)
	}
	sc, err := score.Parse(data)
	if err != nil {
		return fmt.Errorf("parse score %s: %w", input, err)
	}

	dot := inspect.ToDOT(sc, inspect.Options{Detailed: detailed})

	switch format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = inspect.RenderSVG(dot)
		if err != nil {
			return fmt.Errorf("render structure diagram: %w", err)
		}
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase(input) + "." + format
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Structure diagram written")
	printFile(outputPath)
	return nil
}
