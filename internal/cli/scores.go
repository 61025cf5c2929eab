package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore/pkg/score"
	"github.com/aylabs/musicore/pkg/store"
)

// scoresCommand creates the scores command group for the local score library.
func (c *CLI) scoresCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Manage the local score library",
		Long: `Manage the local score library.

Scores are stored under ~/.config/musicore/scores/ and can be engraved by ID
without keeping track of file paths. Running 'scores' with no subcommand
opens an interactive picker.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScoresPicker()
		},
	}

	cmd.AddCommand(c.scoresAddCommand())
	cmd.AddCommand(c.scoresListCommand())
	cmd.AddCommand(c.scoresShowCommand())
	cmd.AddCommand(c.scoresRemoveCommand())

	return cmd
}

func (c *CLI) scoresAddCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add [score.json]",
		Short: "Add a score to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.readScore(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("read score %s: %w", args[0], err)
			}
			sc, err := score.Parse(data)
			if err != nil {
				return fmt.Errorf("invalid score: %w", err)
			}

			if title == "" {
				title = sc.Title
			}
			st, err := newScoreStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec := store.NewRecord(title, data)
			if err := st.Put(cmd.Context(), rec); err != nil {
				return fmt.Errorf("store score: %w", err)
			}

			printSuccess("Score added")
			printKeyValue("ID", rec.ID)
			if rec.Title != "" {
				printKeyValue("Title", rec.Title)
			}
			printNewline()
			printNextStep("List library", "musicore scores list")
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "display title (default: score document title)")
	return cmd
}

func (c *CLI) scoresListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scores in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newScoreStore()
			if err != nil {
				return err
			}
			defer st.Close()

			summaries, err := st.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list scores: %w", err)
			}
			if len(summaries) == 0 {
				printInfo("Library is empty")
				return nil
			}

			for _, s := range summaries {
				title := s.Title
				if title == "" {
					title = StyleDim.Render("(untitled)")
				}
				fmt.Println(StyleHighlight.Render(s.ID) + "  " + title + "  " +
					StyleDim.Render(s.CreatedAt.Format("2006-01-02 15:04")))
			}
			return nil
		},
	}
}

func (c *CLI) scoresShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a stored score document to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newScoreStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load score %s: %w", args[0], err)
			}
			fmt.Println(string(rec.ScoreJSON))
			return nil
		},
	}
}

func (c *CLI) scoresRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Remove a score from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newScoreStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove score %s: %w", args[0], err)
			}
			printSuccess("Score removed")
			return nil
		},
	}
}

// runScoresPicker opens the interactive score picker and prints the selected
// score's ID, suitable for command substitution.
func (c *CLI) runScoresPicker() error {
	st, err := newScoreStore()
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.List(context.Background())
	if err != nil {
		return fmt.Errorf("list scores: %w", err)
	}
	if len(summaries) == 0 {
		printInfo("Library is empty")
		printNextStep("Add a score", "musicore scores add score.json")
		return nil
	}

	model := NewScoreListModel(summaries)
	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("run picker: %w", err)
	}

	if m, ok := final.(ScoreListModel); ok && m.Selected != nil {
		fmt.Println(m.Selected.ID)
	}
	return nil
}
