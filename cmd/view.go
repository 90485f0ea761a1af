package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabletalk/internal/summary"
	"github.com/fakeyudi/tabletalk/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View a saved meal summary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		ms, err := summary.ParserFor(path).Parse(data)
		if err != nil {
			return err
		}

		if plainOutput {
			printMeal(cmd.OutOrStdout(), ms)
			return nil
		}
		return tui.RunViewer(ms, path)
	},
}

// printMeal writes a plain-text summary to w.
func printMeal(w io.Writer, ms *summary.MealSummary) {
	meal := ms.Meal
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "  Date:        %s\n", summary.FormatDate(meal.StartTime))
	fmt.Fprintf(w, "  Duration:    %s\n", ms.Duration)
	fmt.Fprintf(w, "  Companion:   %s\n", ms.Companion)
	if ms.Author != "" {
		fmt.Fprintf(w, "  Diner:       %s\n", ms.Author)
	}
	if meal.Rating > 0 {
		fmt.Fprintf(w, "  Mindfulness: %s\n", summary.Stars(meal.Rating))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Conversation Highlights")
	highlights, more := ms.Highlights()
	if len(highlights) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, m := range highlights {
		fmt.Fprintf(w, "  %s: %s\n", m.Speaker.Label(), m.Text)
	}
	if more > 0 {
		fmt.Fprintf(w, "  ... and %d more messages\n", more)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## What I Ate")
	if len(meal.FoodItems) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, item := range meal.FoodItems {
		fmt.Fprintf(w, "  - %s\n", item)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Notes")
	if strings.TrimSpace(meal.Notes) == "" {
		fmt.Fprintln(w, "  (none)")
	} else {
		fmt.Fprintln(w, indent(meal.Notes, "  "))
	}
	fmt.Fprintln(w)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
