package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/tabletalk/internal/config"
	"github.com/fakeyudi/tabletalk/internal/logging"
	"github.com/fakeyudi/tabletalk/internal/settings"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg = config.Defaults()

// userSettings holds the loaded user settings.
var userSettings = settings.Defaults()

// logger is replaced in PersistentPreRunE once config is known.
var logger = zap.NewNop()

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "tabletalk",
	Short:        "Share your meals with a friendly companion and keep a mindful-eating journal",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// First run: settings missing → run the wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !settings.Exists() && term.IsTerminal(os.Stdin.Fd()) {
			cmd.Println()
			cmd.Println("  Welcome to tabletalk! Looks like this is your first time.")
			if err := runSettings(cmd, true); err != nil {
				return err
			}
		}

		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		userSettings = *s

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		return initLogger(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// initLogger builds the zap logger. The chat screen owns the terminal, so
// it logs to a file unless one is configured.
func initLogger(cmd *cobra.Command) error {
	path := cfg.LogFile
	if path == "" && cmd.Name() == "chat" {
		p, err := logging.DefaultFile()
		if err != nil {
			return err
		}
		path = p
	}
	l, err := logging.New(logging.Options{Verbose: verbose, Path: path})
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("configuration loaded",
		zap.String("command", cmd.CommandPath()),
		zap.String("companion", cfg.Companion),
		zap.String("format", cfg.DefaultFormat))
	return nil
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
