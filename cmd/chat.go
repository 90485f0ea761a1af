package cmd

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/tabletalk/internal/journal"
	"github.com/fakeyudi/tabletalk/internal/lifecycle"
	"github.com/fakeyudi/tabletalk/internal/settings"
	"github.com/fakeyudi/tabletalk/internal/speech"
	"github.com/fakeyudi/tabletalk/internal/summary"
	"github.com/fakeyudi/tabletalk/internal/tui"
)

var (
	chatCompanion string
	chatMute      bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a meal with your companion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdout.Fd()) {
			return fmt.Errorf("chat needs an interactive terminal")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		sel, err := newSelector()
		if err != nil {
			return err
		}

		mgr := lifecycle.NewManager(nil, nil, logger)
		name := cfg.Companion
		if chatCompanion != "" {
			name = chatCompanion
		}
		if err := mgr.Companions().SelectByName(name); err != nil {
			return err
		}

		var current atomic.Pointer[settings.Settings]
		s := userSettings
		current.Store(&s)

		exporter := &journal.Exporter{
			Store:     store,
			Renderer:  summary.RendererFor(cfg.DefaultFormat),
			Companion: func() string { return mgr.Companions().Current().Name },
			Author:    func() string { return current.Load().Name },
			Logger:    logger,
		}
		sub := mgr.Events().Subscribe(exporter.Handle)
		defer mgr.Events().Unsubscribe(sub)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		updates := make(chan *settings.Settings, 1)
		go func() {
			err := settings.Watch(ctx, logger, func(s *settings.Settings) {
				current.Store(s)
				select {
				case updates <- s:
				default:
				}
			})
			if err != nil {
				logger.Warn("settings watcher stopped", zap.Error(err))
			}
		}()

		synth := newSynthesizer()
		if c, ok := synth.(*speech.CommandSynthesizer); ok {
			defer c.Close()
		}

		logger.Info("chat started",
			zap.String("companion", mgr.Companions().Current().Name),
			zap.String("journal", store.Dir()))

		return tui.RunChat(tui.ChatOptions{
			Manager:         mgr,
			Selector:        sel,
			Listener:        speech.NewListener(speech.Unavailable{}, logger),
			Synth:           synth,
			Exporter:        exporter,
			Settings:        userSettings,
			SettingsUpdates: updates,
			Logger:          logger,
		})
	},
}

// newSynthesizer returns the configured speech command, or a muted
// synthesizer when speech is off or the command cannot be found.
func newSynthesizer() speech.Synthesizer {
	if chatMute || cfg.SpeechCommand == "" {
		return &speech.Muted{}
	}
	c, err := speech.NewCommandSynthesizer(cfg.SpeechCommand, logger)
	if err != nil {
		logger.Warn("speech disabled", zap.String("command", cfg.SpeechCommand), zap.Error(err))
		return &speech.Muted{}
	}
	return c
}

// openStore opens the configured journal directory.
func openStore() (*journal.DirStore, error) {
	dir := cfg.JournalDir
	if dir == "" {
		d, err := journal.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return journal.NewDirStore(dir)
}

func init() {
	chatCmd.Flags().StringVarP(&chatCompanion, "companion", "c", "", "companion to eat with (Sam, Alex or Jamie)")
	chatCmd.Flags().BoolVar(&chatMute, "mute", false, "do not speak replies aloud")
	chatCmd.Flags().Int64Var(&seed, "seed", 0, "seed the phrase picker for reproducible conversations")
	rootCmd.AddCommand(chatCmd)
}
