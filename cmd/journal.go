package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/tabletalk/internal/journal"
	"github.com/fakeyudi/tabletalk/internal/session"
	"github.com/fakeyudi/tabletalk/internal/summary"
	"github.com/fakeyudi/tabletalk/internal/tui"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Browse and edit past meals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return journalListCmd.RunE(cmd, args)
	},
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past meals, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal(cmd)
		if err != nil {
			return err
		}
		meals := j.All()
		if len(meals) == 0 {
			cmd.Println("No meals yet. Run 'tabletalk chat' to start one.")
			return nil
		}
		out := cmd.OutOrStdout()
		for i, s := range meals {
			companion := ""
			if ms, ok := j.Summary(s); ok {
				companion = ms.Companion
			}
			rating := ""
			if r := s.Rating(); r > 0 {
				rating = summary.Stars(r)
			}
			fmt.Fprintf(out, "%3d  %-26s  %-6s  %-12s  %-5s  %s\n",
				i, summary.FormatDate(s.StartTime), companion,
				summary.FormatDuration(s.Duration()), rating,
				strings.Join(s.FoodItems(), ", "))
		}
		return nil
	},
}

var journalShowPlain bool

var journalShowCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Show one meal's summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, s, err := journalMeal(cmd, args[0])
		if err != nil {
			return err
		}
		ms, _ := j.Summary(s)
		if journalShowPlain {
			printMeal(cmd.OutOrStdout(), ms)
			return nil
		}
		path, _ := j.Path(s)
		return tui.RunViewer(ms, path)
	},
}

var journalRmCmd = &cobra.Command{
	Use:   "rm <index>...",
	Short: "Delete meals by their list index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		indices, err := parseIndices(args)
		if err != nil {
			return err
		}
		j, err := openJournal(cmd)
		if err != nil {
			return err
		}
		removed, err := j.Remove(indices...)
		for _, s := range removed {
			logger.Info("meal deleted", zap.String("meal", s.ID))
		}
		if len(removed) > 0 || err == nil {
			cmd.Printf("Removed %d meal(s).\n", len(removed))
		}
		return err
	},
}

var journalNoteCmd = &cobra.Command{
	Use:   "note <index> <text>",
	Short: "Replace a meal's notes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editMeal(cmd, args[0], func(s *session.Session) (string, error) {
			s.SetNotes(strings.Join(args[1:], " "))
			return "Notes updated.", nil
		})
	},
}

var journalRateCmd = &cobra.Command{
	Use:   "rate <index> <1-5>",
	Short: "Rate how mindful a meal felt",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("rating must be a number from 1 to 5: %q", args[1])
		}
		return editMeal(cmd, args[0], func(s *session.Session) (string, error) {
			if err := s.SetRating(n); err != nil {
				return "", err
			}
			return "Rated " + summary.Stars(n) + ".", nil
		})
	},
}

var journalFoodCmd = &cobra.Command{
	Use:   "food",
	Short: "Add or remove food items on a past meal",
}

var journalFoodAddCmd = &cobra.Command{
	Use:   "add <index> <item>",
	Short: "Add a food item",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item := strings.Join(args[1:], " ")
		return editMeal(cmd, args[0], func(s *session.Session) (string, error) {
			if !s.AddFoodItem(item) {
				return "Nothing to add.", nil
			}
			return "Added " + strings.TrimSpace(item) + ".", nil
		})
	},
}

var journalFoodRmCmd = &cobra.Command{
	Use:   "rm <index> <item>",
	Short: "Remove a food item",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item := strings.Join(args[1:], " ")
		return editMeal(cmd, args[0], func(s *session.Session) (string, error) {
			if !s.RemoveFoodItem(item) {
				return "", fmt.Errorf("%q is not on that meal", item)
			}
			return "Removed " + item + ".", nil
		})
	},
}

// openJournal loads every meal in the journal directory. Files that cannot
// be parsed are reported and skipped.
func openJournal(cmd *cobra.Command) (*journal.Journal, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	j, warnings, err := journal.Load(store)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("skipping journal file", zap.String("reason", w))
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	return j, nil
}

func journalMeal(cmd *cobra.Command, arg string) (*journal.Journal, *session.Session, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid meal index %q", arg)
	}
	j, err := openJournal(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := j.At(idx)
	if err != nil {
		return nil, nil, err
	}
	return j, s, nil
}

// editMeal applies edit to one meal and writes it back to its file.
func editMeal(cmd *cobra.Command, arg string, edit func(*session.Session) (string, error)) error {
	j, s, err := journalMeal(cmd, arg)
	if err != nil {
		return err
	}
	msg, err := edit(s)
	if err != nil {
		return err
	}
	if err := j.Save(s); err != nil {
		return err
	}
	logger.Debug("meal edited", zap.String("meal", s.ID))
	cmd.Println(msg)
	return nil
}

func parseIndices(args []string) ([]int, error) {
	indices := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid meal index %q", a)
		}
		indices = append(indices, n)
	}
	return indices, nil
}

func init() {
	journalShowCmd.Flags().BoolVar(&journalShowPlain, "plain", false, "plain text output instead of TUI")
	journalFoodCmd.AddCommand(journalFoodAddCmd, journalFoodRmCmd)
	journalCmd.AddCommand(journalListCmd, journalShowCmd, journalRmCmd, journalNoteCmd, journalRateCmd, journalFoodCmd)
	rootCmd.AddCommand(journalCmd)
}
