package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fakeyudi/tabletalk/internal/companion"
	"github.com/fakeyudi/tabletalk/internal/conversation"
	"github.com/fakeyudi/tabletalk/internal/events"
	"github.com/fakeyudi/tabletalk/internal/journal"
	"github.com/fakeyudi/tabletalk/internal/lifecycle"
	"github.com/fakeyudi/tabletalk/internal/session"
	"github.com/fakeyudi/tabletalk/internal/settings"
	"github.com/fakeyudi/tabletalk/internal/speech"
	"github.com/fakeyudi/tabletalk/internal/summary"
)

// DefaultReplyDelay is how long the companion "thinks" before answering.
const DefaultReplyDelay = 500 * time.Millisecond

const partialRefresh = 150 * time.Millisecond

// ChatOptions wires the chat screen to the rest of the application. Only
// Manager is required.
type ChatOptions struct {
	Manager  *lifecycle.Manager
	Selector *conversation.Selector
	Listener *speech.Listener
	Synth    speech.Synthesizer
	// Exporter, when set, rewrites the journal file after the summary
	// screen edits an ended meal. It must already be subscribed to the
	// manager's events.
	Exporter        *journal.Exporter
	Settings        settings.Settings
	SettingsUpdates <-chan *settings.Settings
	Logger          *zap.Logger
	Now             func() time.Time
	ReplyDelay      time.Duration
}

type chatMode int

const (
	modeChat chatMode = iota
	modeSummary
)

// ── Messages ─────────────────

type replyMsg struct {
	mealID string
	text   string
}

type mealEndedMsg struct{ meal *session.Session }

type speechDoneMsg struct{ utterance speech.Utterance }

type settingsMsg struct{ settings *settings.Settings }

type partialTickMsg struct{}

// ── Model ────────────────────

// Chat is the Bubble Tea model for a meal conversation and the summary
// shown once the meal ends.
type Chat struct {
	opts  ChatOptions
	ended chan *session.Session
	sub   events.Subscription

	mode      chatMode
	meal      *session.Session // active meal, or the ended one being summarised
	companion companion.Companion
	speaking  bool
	showHelp  bool
	status    string
	advisory  bool

	input  textinput.Model
	conv   viewport.Model
	width  int
	height int
	ready  bool
}

// NewChat subscribes to the manager's SessionEnded events and starts the
// first meal with the currently selected companion.
func NewChat(opts ChatOptions) (Chat, error) {
	if opts.Manager == nil {
		return Chat{}, fmt.Errorf("chat requires a lifecycle manager")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Selector == nil {
		opts.Selector = conversation.NewSelector(conversation.DefaultBank(), nil)
	}
	if opts.Listener == nil {
		opts.Listener = speech.NewListener(speech.Unavailable{}, opts.Logger)
	}
	if opts.Synth == nil {
		opts.Synth = &speech.Muted{}
	}
	if opts.ReplyDelay <= 0 {
		opts.ReplyDelay = DefaultReplyDelay
	}

	input := textinput.New()
	input.Placeholder = "Say something about your meal, or /help"
	input.Prompt = "› "
	input.CharLimit = 500
	input.Focus()

	m := Chat{
		opts:  opts,
		ended: make(chan *session.Session, 1),
		input: input,
		conv:  viewport.New(80, 20),
	}
	ended := m.ended
	m.sub = opts.Manager.Events().Subscribe(func(ev events.SessionEnded) error {
		select {
		case ended <- ev.Session:
		default:
			// A summary is already pending; the newer one is dropped.
		}
		return nil
	})

	if err := m.startMeal(); err != nil {
		opts.Manager.Events().Unsubscribe(m.sub)
		return Chat{}, err
	}
	return m, nil
}

// Close releases the event subscription and silences speech.
func (m Chat) Close() {
	m.opts.Manager.Events().Unsubscribe(m.sub)
	if _, err := m.opts.Listener.Stop(); err != nil {
		m.opts.Logger.Debug("listener stopped with error", zap.Error(err))
	}
	if err := m.opts.Synth.StopSpeaking(); err != nil {
		m.opts.Logger.Debug("stop speaking", zap.Error(err))
	}
}

func (m Chat) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEnded(), m.waitForSpeech(), m.waitForSettings())
}

func (m Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// header(1) + status(1) + input(1)
		m.conv.Width = msg.Width
		m.conv.Height = max(msg.Height-3, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()
		case "enter":
			line := m.input.Value()
			m.input.Reset()
			return m.submit(line)
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.conv, cmd = m.conv.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case replyMsg:
		m.reply(msg)
		return m, nil

	case mealEndedMsg:
		if msg.meal != nil {
			m.showSummary(msg.meal)
		}
		return m, m.waitForEnded()

	case speechDoneMsg:
		m.speaking = false
		return m, m.waitForSpeech()

	case settingsMsg:
		if msg.settings != nil {
			m.opts.Settings = *msg.settings
			m.refresh()
		}
		return m, m.waitForSettings()

	case partialTickMsg:
		if !m.opts.Listener.Listening() {
			return m, nil
		}
		m.refresh()
		return m, partialTick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Chat) View() string {
	if !m.ready {
		return "Loading…"
	}

	header := "  tabletalk  ·  " + m.companion.Name
	if m.mode == modeChat {
		header += "  ·  " + summary.FormatDuration(m.opts.Now().Sub(m.meal.StartTime))
	} else {
		header += "  ·  summary"
	}
	if name := m.opts.Settings.Name; name != "" {
		header += "  ·  " + name
	}
	if m.speaking {
		header += "  ·  speaking…"
	}
	if next, ok := m.opts.Settings.NextReminder(m.opts.Now()); ok {
		header += "  ·  next reminder " + next.Format("15:04")
	}
	title := titleStyle.Width(m.width).Render(header)

	status := m.status
	if m.advisory {
		status = advisoryStyle.Render(status)
	}
	statusBar := statusBarStyle.Width(m.width).Render(status)

	return lipgloss.JoinVertical(lipgloss.Left, title, m.conv.View(), statusBar, m.input.View())
}

// ── Commands ─────────────────

func (m Chat) submit(line string) (tea.Model, tea.Cmd) {
	cmd, isCmd, err := parseCommand(line)
	if err != nil {
		m.setAdvisory(err.Error())
		return m, nil
	}
	if !isCmd {
		return m.send(line)
	}

	switch cmd.name {
	case "help":
		m.showHelp = !m.showHelp
	case "prompt":
		if m.requireMeal() {
			m.say(m.opts.Selector.NextPrompt())
		}
	case "listen":
		if m.requireMeal() {
			return m.toggleListening()
		}
	case "food":
		m.editFood(cmd.arg, true)
	case "unfood":
		m.editFood(cmd.arg, false)
	case "note":
		m.meal.SetNotes(cmd.arg)
		m.setStatus("Notes updated.")
		m.afterEdit()
	case "rate":
		m.rate(cmd.arg)
	case "end":
		if m.requireMeal() {
			m.endMeal()
		}
	case "new":
		if m.mode == modeChat {
			m.setAdvisory("A meal is already in progress.")
			break
		}
		if err := m.startMeal(); err != nil {
			m.setAdvisory(err.Error())
		}
	case "companion":
		m.chooseCompanion(cmd.arg)
	case "quit":
		return m.quit()
	}
	m.refresh()
	return m, nil
}

// send records the user's words and schedules the companion's reply.
func (m Chat) send(text string) (tea.Model, tea.Cmd) {
	if !m.requireMeal() {
		return m, nil
	}
	if _, ok := m.opts.Manager.RecordExchange(m.meal, session.SpeakerUser, text, m.opts.Now()); !ok {
		return m, nil
	}
	m.setStatus("")
	m.refresh()

	mealID := m.meal.ID
	return m, tea.Tick(m.opts.ReplyDelay, func(time.Time) tea.Msg {
		return replyMsg{mealID: mealID, text: text}
	})
}

// reply answers a user message unless its meal is no longer the active one.
func (m *Chat) reply(msg replyMsg) {
	active, ok := m.opts.Manager.Active()
	if !ok || active.ID != msg.mealID || m.meal == nil || m.meal.ID != msg.mealID {
		m.opts.Logger.Debug("dropping late reply", zap.String("meal", msg.mealID))
		return
	}
	m.say(m.opts.Selector.Respond(msg.text))
	m.refresh()
}

func (m Chat) toggleListening() (tea.Model, tea.Cmd) {
	l := m.opts.Listener
	if l.Listening() {
		text, err := l.Stop()
		if err != nil {
			m.setAdvisory("Speech recognition error: " + err.Error())
		}
		if strings.TrimSpace(text) == "" {
			if err == nil {
				m.setStatus("Didn't catch that.")
			}
			m.refresh()
			return m, nil
		}
		return m.send(text)
	}

	if err := l.Start(context.Background()); err != nil {
		m.setAdvisory(err.Error())
		m.refresh()
		return m, nil
	}
	if err := m.opts.Synth.StopSpeaking(); err != nil {
		m.opts.Logger.Debug("stop speaking", zap.Error(err))
	}
	m.speaking = false
	m.setStatus("Listening… type /listen again when you're done.")
	m.refresh()
	return m, partialTick()
}

func (m *Chat) editFood(item string, add bool) {
	item = strings.TrimSpace(item)
	if item == "" {
		if add {
			m.setAdvisory("Usage: /food <item>")
		} else {
			m.setAdvisory("Usage: /unfood <item>")
		}
		return
	}
	switch {
	case add && m.meal.AddFoodItem(item):
		m.setStatus("Added " + item + ".")
	case add:
		m.setStatus(item + " is already on the list.")
	case m.meal.RemoveFoodItem(item):
		m.setStatus("Removed " + item + ".")
	default:
		m.setStatus(item + " is not on the list.")
	}
	m.afterEdit()
}

func (m *Chat) rate(arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		m.setAdvisory("Usage: /rate <1-5>")
		return
	}
	if err := m.meal.SetRating(n); err != nil {
		m.setAdvisory(err.Error())
		return
	}
	m.setStatus("Mindfulness " + summary.Stars(n))
	m.afterEdit()
}

func (m *Chat) chooseCompanion(name string) {
	if m.mode == modeChat {
		m.setAdvisory("Finish this meal before switching companions.")
		return
	}
	sel := m.opts.Manager.Companions()
	if err := sel.SelectByName(name); err != nil {
		m.setAdvisory(err.Error())
		return
	}
	m.setStatus(sel.Current().Name + " will join your next meal. Type /new to start.")
}

// endMeal ends the active meal. The switch to the summary screen happens
// when the SessionEnded event arrives.
func (m *Chat) endMeal() {
	if _, err := m.opts.Listener.Stop(); err != nil {
		m.opts.Logger.Debug("listener stopped with error", zap.Error(err))
	}
	if err := m.opts.Synth.StopSpeaking(); err != nil {
		m.opts.Logger.Debug("stop speaking", zap.Error(err))
	}
	m.speaking = false
	if _, err := m.opts.Manager.End(m.opts.Now()); err != nil {
		m.setAdvisory(err.Error())
		return
	}
	m.setStatus("Meal ended.")
}

func (m Chat) quit() (tea.Model, tea.Cmd) {
	if m.mode == modeChat {
		m.endMeal()
	}
	return m, tea.Quit
}

func (m *Chat) startMeal() error {
	s, err := m.opts.Manager.Start(m.opts.Now())
	if err != nil {
		return err
	}
	m.meal = s
	m.companion = m.opts.Manager.Companions().Current()
	m.mode = modeChat
	m.setStatus("Enjoy your meal with " + m.companion.Name + ". /help lists commands.")
	m.say(m.companion.Greeting)
	m.refresh()
	return nil
}

func (m *Chat) showSummary(s *session.Session) {
	m.meal = s
	m.mode = modeSummary
	m.setStatus("Meal saved. /food, /note and /rate still work; /new starts another meal.")
	m.refresh()
	m.conv.GotoTop()
}

// say records a companion line and speaks it.
func (m *Chat) say(text string) {
	if _, ok := m.opts.Manager.RecordExchange(m.meal, session.SpeakerCompanion, text, m.opts.Now()); !ok {
		return
	}
	if err := m.opts.Synth.Speak(text, m.companion.VoiceName()); err != nil {
		m.opts.Logger.Warn("speak failed", zap.Error(err))
		m.setAdvisory(err.Error())
		return
	}
	m.speaking = true
}

// afterEdit persists edits made to an already ended meal.
func (m *Chat) afterEdit() {
	if m.mode != modeSummary || m.opts.Exporter == nil {
		return
	}
	if err := m.opts.Exporter.Resave(events.SessionEnded{Session: m.meal}); err != nil {
		m.opts.Logger.Warn("updating journal file", zap.String("meal", m.meal.ID), zap.Error(err))
		m.setAdvisory("Could not update the journal: " + err.Error())
	}
}

func (m *Chat) requireMeal() bool {
	if m.mode == modeChat {
		return true
	}
	m.setAdvisory("The meal has ended. Type /new to start another.")
	return false
}

func (m *Chat) setStatus(s string) {
	m.status = s
	m.advisory = false
}

func (m *Chat) setAdvisory(s string) {
	m.status = s
	m.advisory = true
}

// ── Rendering ─────────────────

func (m *Chat) refresh() {
	var sb strings.Builder
	if m.mode == modeSummary {
		sb.WriteString(renderOverview(summary.FromSession(m.meal, m.companion.Name, m.opts.Settings.Name)))
	} else {
		m.renderChat(&sb)
	}
	if m.showHelp {
		sb.WriteString(heading("Commands"))
		sb.WriteString(commandHelp())
	}
	m.conv.SetContent(sb.String())
	if m.mode == modeChat {
		m.conv.GotoBottom()
	}
}

func (m *Chat) renderChat(sb *strings.Builder) {
	wrap := lipgloss.NewStyle().Width(max(m.conv.Width-2, 20))
	sb.WriteString("\n")
	for _, msg := range m.meal.Log().All() {
		line := speakerLabel(msg.Speaker, m.companion.Name) + " " + msg.Text
		sb.WriteString(wrap.Render("  "+line) + "\n\n")
	}
	if m.opts.Listener.Listening() {
		partial := m.opts.Listener.Partial()
		if partial == "" {
			partial = "…"
		}
		sb.WriteString(dimStyle.Render("  (listening) "+partial) + "\n")
	}
}

// ── Async sources ─────────────────

func (m Chat) waitForEnded() tea.Cmd {
	ch := m.ended
	return func() tea.Msg { return mealEndedMsg{meal: <-ch} }
}

func (m Chat) waitForSpeech() tea.Cmd {
	ch := m.opts.Synth.Finished()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return speechDoneMsg{utterance: u}
	}
}

func (m Chat) waitForSettings() tea.Cmd {
	ch := m.opts.SettingsUpdates
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return settingsMsg{settings: s}
	}
}

func partialTick() tea.Cmd {
	return tea.Tick(partialRefresh, func(time.Time) tea.Msg { return partialTickMsg{} })
}

// RunChat runs the chat screen until the user quits.
func RunChat(opts ChatOptions) error {
	m, err := NewChat(opts)
	if err != nil {
		return err
	}
	defer m.Close()
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
