package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabletalk/internal/settings"
)

var showSettings bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Edit your name and meal reminders (re-run anytime)",
	// Bypass the normal PersistentPreRunE so settings work before the file exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if showSettings {
			s, err := settings.Load()
			if err != nil {
				return err
			}
			printSettings(cmd, s)
			return nil
		}
		return runSettings(cmd, false)
	},
}

func printSettings(cmd *cobra.Command, s *settings.Settings) {
	name := s.Name
	if name == "" {
		name = "(not set)"
	}
	reminder := "off"
	if s.ReminderEnabled {
		reminder = "daily at " + s.ReminderTime
	}
	cmd.Printf("Name:      %s\n", name)
	cmd.Printf("Reminder:  %s\n", reminder)
}

// runSettings runs the interactive settings wizard.
// If firstRun is true, a welcome message is shown.
func runSettings(cmd *cobra.Command, firstRun bool) error {
	if firstRun {
		cmd.Println()
		cmd.Println("  Let's get you set up.")
	}

	var existing *settings.Settings
	if settings.Exists() {
		if s, err := settings.Load(); err == nil {
			existing = s
		}
	}

	s, err := settings.RunSetup(existing, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("settings cancelled: %w", err)
	}
	if err := settings.Save(s); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	cmd.Println("  ✓ Settings saved.")
	if firstRun {
		cmd.Println("  Run 'tabletalk chat' when your food is ready.")
	}
	cmd.Println()
	return nil
}

func init() {
	settingsCmd.Flags().BoolVar(&showSettings, "show", false, "print the current settings instead of editing them")
	rootCmd.AddCommand(settingsCmd)
}
