// Package tui provides the Bubble Tea screens: the chat with a companion and
// the viewer for saved meal summaries.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/tabletalk/internal/session"
	"github.com/fakeyudi/tabletalk/internal/summary"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("28")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("28")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("114"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	companionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	starStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	advisoryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabConversation
	tabFoodNotes
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Conversation", "Food & Notes"}

// ── Model ────────────────────

// Viewer is the Bubble Tea model for browsing one saved meal summary.
type Viewer struct {
	meal      *summary.MealSummary
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
}

// NewViewer creates a viewer for the given summary and source filename.
func NewViewer(ms *summary.MealSummary, filename string) Viewer {
	return Viewer{meal: ms, filename: filepath.Base(filename)}
}

func (m Viewer) Init() tea.Cmd { return nil }

func (m Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1", "2", "3":
			m.activeTab = tabID(msg.String()[0] - '1')
			return m, nil
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Viewer) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render(
		fmt.Sprintf("  tabletalk  %s  ·  meal with %s", m.filename, m.meal.Companion))

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-3 jump  q quit"
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

func (m *Viewer) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Viewer) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return renderOverview(m.meal)
	case tabConversation:
		return renderTranscript(m.meal.Meal.Messages, m.meal.Companion)
	case tabFoodNotes:
		return renderFoodAndNotes(m.meal)
	}
	return ""
}

// ── Shared renderers ─────────────────

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func speakerLabel(sp session.Speaker, companionName string) string {
	if sp == session.SpeakerCompanion {
		if companionName == "" {
			companionName = sp.Label()
		}
		return companionStyle.Render(companionName + ":")
	}
	return userStyle.Render(sp.Label() + ":")
}

// renderOverview is the summary screen shown after a meal ends and on the
// viewer's first tab.
func renderOverview(ms *summary.MealSummary) string {
	var sb strings.Builder
	sb.WriteString(heading("Meal Summary"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-12s", label)) + "  " + value + "\n")
	}
	row("Date:", summary.FormatDate(ms.Meal.StartTime))
	row("Duration:", ms.Duration)
	row("Companion:", ms.Companion)
	if ms.Author != "" {
		row("Diner:", ms.Author)
	}
	if ms.Meal.Rating > 0 {
		row("Mindfulness:", starStyle.Render(summary.Stars(ms.Meal.Rating)))
	} else {
		row("Mindfulness:", dimStyle.Render("not rated"))
	}

	sb.WriteString(heading("Conversation Highlights"))
	highlights, more := ms.Highlights()
	if len(highlights) == 0 {
		sb.WriteString(dimStyle.Render("  No conversation recorded.") + "\n")
	}
	for _, msg := range highlights {
		sb.WriteString("  " + speakerLabel(msg.Speaker, ms.Companion) + " " + msg.Text + "\n")
	}
	if more > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more messages", more)) + "\n")
	}

	sb.WriteString(renderFoodAndNotes(ms))
	return sb.String()
}

func renderTranscript(msgs []session.Message, companionName string) string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Conversation (%d)", len(msgs))))
	if len(msgs) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, msg := range msgs {
		ts := timeStyle.Render(msg.Timestamp.Format("15:04:05"))
		fmt.Fprintf(&sb, "  %s  %s %s\n\n", ts, speakerLabel(msg.Speaker, companionName), msg.Text)
	}
	return sb.String()
}

func renderFoodAndNotes(ms *summary.MealSummary) string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("What I Ate (%d)", len(ms.Meal.FoodItems))))
	if len(ms.Meal.FoodItems) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
	}
	for _, item := range ms.Meal.FoodItems {
		sb.WriteString(bullet(item))
	}

	sb.WriteString(heading("Notes"))
	if strings.TrimSpace(ms.Meal.Notes) == "" {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
	} else {
		sb.WriteString(indent(ms.Meal.Notes, "  ") + "\n")
	}
	return sb.String()
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

// RunViewer starts the TUI for the given meal summary.
func RunViewer(ms *summary.MealSummary, filename string) error {
	p := tea.NewProgram(NewViewer(ms, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
