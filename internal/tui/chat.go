// Package tui is the terminal chat front end.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hyperjump/icebreaker/internal/models"
)

// Asker answers one question about the loaded profile. Implementations never
// fail; problems come back as a displayable answer with a degraded outcome.
type Asker interface {
	Ask(question string) *models.AskResponse
}

type exchange struct {
	question string
	answer   string
	outcome  string
}

type answerMsg struct {
	question string
	reply    *models.AskResponse
}

// Model is the Bubble Tea model for a chat about one profile.
type Model struct {
	asker    Asker
	title    string
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model. summary is shown as the first message.
func New(asker Asker, title, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the profile and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	m := Model{
		asker:    asker,
		title:    title,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ctrl+C to quit.",
	}
	if summary != "" {
		m.history = append(m.history, exchange{answer: summary})
	}
	return m
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, resize and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := boxStyle.GetFrameSize()
		// title, input box and status line
		reserved := 1 + 3 + 1
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case answerMsg:
		m.waiting = false
		m.history = append(m.history, exchange{question: msg.question, answer: msg.reply.Answer, outcome: msg.reply.Outcome})
		m.status = "Ctrl+C to quit."
		if msg.reply.Outcome != "" && msg.reply.Outcome != "ok" {
			m.status = "Last answer: " + msg.reply.Outcome
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.waiting = true
			m.status = "Thinking..."
			return m, ask(m.asker, q)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func ask(a Asker, question string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{question: question, reply: a.Ask(question)}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
	m.viewport.GotoBottom()
}

// View renders the title, conversation, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := titleStyle.Render(m.title)
	conv := boxStyle.Render(m.viewport.View())
	input := boxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return title + "\n" + conv + "\n" + input + "\n" + status
}

func (m Model) render() string {
	if len(m.history) == 0 {
		return "No messages yet."
	}
	wrap := lipgloss.NewStyle().Width(max(10, m.viewport.Width-2))
	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n")
		}
		if ex.question != "" {
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(wrap.Render(ex.question))
			b.WriteString("\n")
		}
		answer := wrap.Render(ex.answer)
		if ex.outcome != "" && ex.outcome != "ok" {
			answer = degradedStyle.Render(answer)
		}
		b.WriteString(answer)
		b.WriteString("\n")
	}
	return b.String()
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
