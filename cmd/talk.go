package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabletalk/internal/companion"
	"github.com/fakeyudi/tabletalk/internal/conversation"
)

// seed is shared by the commands that draw from the phrase banks; zero
// means time-seeded.
var seed int64

// newSelector builds a selector over the configured phrasebook.
func newSelector() (*conversation.Selector, error) {
	bank, err := conversation.LoadBank(cfg.PhrasebookPath)
	if err != nil {
		return nil, err
	}
	if seed != 0 {
		return conversation.NewSeeded(bank, seed), nil
	}
	return conversation.NewSelector(bank, nil), nil
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print a conversation starter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := newSelector()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sel.NextPrompt())
		return nil
	},
}

var respondCmd = &cobra.Command{
	Use:   "respond <text>",
	Short: "Print the companion's reply to what you said",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := newSelector()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sel.Respond(strings.Join(args, " ")))
		return nil
	},
}

var companionsCmd = &cobra.Command{
	Use:   "companions",
	Short: "List the available companions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, selected, ok := companion.Lookup(cfg.Companion)
		if !ok {
			selected = 0
		}
		for i, c := range companion.Catalog() {
			marker := " "
			if i == selected {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-6s  voice %-9s  %q\n", marker, c.Name, c.VoiceName(), c.Greeting)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{promptCmd, respondCmd} {
		c.Flags().Int64Var(&seed, "seed", 0, "seed the phrase picker for reproducible output")
	}
	rootCmd.AddCommand(promptCmd, respondCmd, companionsCmd)
}
