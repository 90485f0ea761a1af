package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const finishedBuffer = 16

// Muted is a Synthesizer that says nothing and reports each utterance as
// finished straight away.
type Muted struct {
	once     sync.Once
	finished chan Utterance
}

func (m *Muted) init() {
	m.once.Do(func() { m.finished = make(chan Utterance, finishedBuffer) })
}

func (m *Muted) Speak(text, voice string) error {
	m.init()
	select {
	case m.finished <- Utterance{Text: text, Voice: voice}:
	default:
	}
	return nil
}

func (m *Muted) StopSpeaking() error { return nil }

func (m *Muted) Finished() <-chan Utterance {
	m.init()
	return m.finished
}

// CommandSynthesizer speaks through an external text-to-speech program such
// as `say` or `espeak`. The command line is split on spaces; the literal
// {voice} is replaced by the utterance's voice and the text is appended as
// the final argument.
type CommandSynthesizer struct {
	args     []string
	logger   *zap.Logger
	finished chan Utterance

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCommandSynthesizer checks that the program exists on PATH.
func NewCommandSynthesizer(command string, logger *zap.Logger) (*CommandSynthesizer, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no speech command configured", ErrCapabilityUnavailable)
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandSynthesizer{
		args:     args,
		logger:   logger,
		finished: make(chan Utterance, finishedBuffer),
	}, nil
}

// Speak interrupts anything currently being said and starts the new
// utterance in the background.
func (c *CommandSynthesizer) Speak(text, voice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}

	args := make([]string, 0, len(c.args))
	for _, a := range c.args[1:] {
		if a == "{voice}" {
			if voice == "" {
				// drop the preceding flag along with the placeholder
				if len(args) > 0 && strings.HasPrefix(args[len(args)-1], "-") {
					args = args[:len(args)-1]
				}
				continue
			}
			a = voice
		}
		args = append(args, a)
	}
	args = append(args, text)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, c.args[0], args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}
	c.cancel = cancel

	u := Utterance{Text: text, Voice: voice}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			c.logger.Warn("speech command failed", zap.String("command", c.args[0]), zap.Error(err))
		}
		select {
		case c.finished <- u:
		default:
			c.logger.Debug("dropping finished notification", zap.String("text", text))
		}
	}()
	return nil
}

// StopSpeaking kills the running speech command, if any.
func (c *CommandSynthesizer) StopSpeaking() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return nil
}

func (c *CommandSynthesizer) Finished() <-chan Utterance { return c.finished }

// Close stops speaking and waits for the background process to exit.
func (c *CommandSynthesizer) Close() error {
	err := c.StopSpeaking()
	c.wg.Wait()
	return err
}
