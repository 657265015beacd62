package models

import (
	"strings"

	"github.com/allbin/serialcomm/internal/tui/components"
	"github.com/allbin/serialcomm/internal/tui/keys"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Outcome is how a prompt ended
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSubmitted
	OutcomeEOF
	OutcomeInterrupted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeEOF:
		return "eof"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "pending"
	}
}

// FlushMsg asks the prompt to print queued console lines above itself
type FlushMsg struct{}

// PromptModel reads one line. Console lines arriving meanwhile are printed
// above the prompt.
type PromptModel struct {
	input *components.Input
	keys  keys.PromptKeys
	help  help.Model
	drain func() []string

	outcome Outcome
	value   string
}

// NewPromptModel reads into input. drain returns the console lines queued
// since the last call; it may be nil.
func NewPromptModel(input *components.Input, drain func() []string) *PromptModel {
	input.Reset()
	return &PromptModel{
		input: input,
		keys:  keys.NewPromptKeys(),
		help:  help.New(),
		drain: drain,
	}
}

// Outcome reports how the prompt ended
func (m *PromptModel) Outcome() Outcome {
	return m.outcome
}

// Value is the submitted line
func (m *PromptModel) Value() string {
	return m.value
}

func (m *PromptModel) Init() tea.Cmd {
	return tea.Batch(m.input.Focus(), m.flush)
}

func (m *PromptModel) flush() tea.Msg {
	return FlushMsg{}
}

func (m *PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case FlushMsg:
		if m.drain == nil {
			return m, nil
		}
		lines := m.drain()
		if len(lines) == 0 {
			return m, nil
		}
		return m, tea.Println(strings.Join(lines, "\n"))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Enter):
			m.value = m.input.Value()
			m.input.AddToHistory(m.value)
			m.outcome = OutcomeSubmitted
			return m, tea.Quit
		case key.Matches(msg, m.keys.Interrupt):
			m.outcome = OutcomeInterrupted
			return m, tea.Quit
		case key.Matches(msg, m.keys.EOF):
			// ctrl+d only ends input on an empty line
			if m.input.Value() == "" {
				m.outcome = OutcomeEOF
				return m, tea.Quit
			}
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.input.NavigateHistoryUp()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.input.NavigateHistoryDown()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *PromptModel) View() string {
	switch m.outcome {
	case OutcomeSubmitted:
		// Leave the line on screen the way a shell would
		return m.input.Submitted(m.value) + "\n"
	case OutcomeEOF, OutcomeInterrupted:
		return ""
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.input.View(),
		m.help.View(m.keys),
	)
}
