package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aylabs/musicore/pkg/score"
)

// validateCommand creates the validate command for checking score documents.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [score.json]",
		Short: "Validate a score document",
		Long: `Validate a score document.

Checks that the document (a local file or an http(s) URL) is well-formed
JSON and that the score satisfies the structural invariants the engraving
engine assumes: non-empty instruments, positive durations, MIDI-range
pitches, and notes ordered by start tick.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.readScore(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load score %s: %w", args[0], err)
			}
			sc, err := score.Parse(data)
			if err != nil {
				printError("Invalid score")
				return err
			}

			staves, voices, notes := 0, 0, 0
			for i := range sc.Instruments {
				staves += len(sc.Instruments[i].Staves)
				for j := range sc.Instruments[i].Staves {
					voices += len(sc.Instruments[i].Staves[j].Voices)
					for k := range sc.Instruments[i].Staves[j].Voices {
						notes += len(sc.Instruments[i].Staves[j].Voices[k].Notes)
					}
				}
			}

			printSuccess("Score is valid")
			if sc.Title != "" {
				printKeyValue("Title", sc.Title)
			}
			printKeyValue("Instruments", fmt.Sprintf("%d", len(sc.Instruments)))
			printKeyValue("Staves", fmt.Sprintf("%d", staves))
			printKeyValue("Voices", fmt.Sprintf("%d", voices))
			printKeyValue("Notes", fmt.Sprintf("%d", notes))
			printKeyValue("Last tick", fmt.Sprintf("%d", sc.LastTick()))
			return nil
		},
	}
}
