package components

import (
	"strings"

	"github.com/allbin/serialcomm/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const maxHistory = 100

// Input is a single-line text field with command history. The history
// outlives individual prompts, so one Input is reused for every line.
type Input struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	currentInput string // Store current input when navigating history
}

func NewInput(prompt string) *Input {
	ti := textinput.New()
	ti.Prompt = styles.PromptStyle.Render(prompt)
	ti.Placeholder = "message, 0x.., 0b.. or 0o.."
	ti.PlaceholderStyle = styles.HintStyle
	ti.CharLimit = 0
	ti.Focus()

	return &Input{
		textInput:    ti,
		history:      make([]string, 0),
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	// Account for the prompt and the cursor
	usableWidth := width - 4
	if usableWidth < 20 {
		usableWidth = 20 // Minimum usable width
	}
	i.textInput.Width = usableWidth
}

func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

// Reset clears the field for the next line and leaves history navigation
func (i *Input) Reset() {
	i.textInput.Reset()
	i.historyIndex = -1
	i.currentInput = ""
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func (i *Input) View() string {
	return i.textInput.View()
}

// Submitted renders the line as it should stay on screen after enter
func (i *Input) Submitted(value string) string {
	return i.textInput.Prompt + value
}

// History returns a copy of the command history, oldest first
func (i *Input) History() []string {
	return append([]string(nil), i.history...)
}

// AddToHistory adds a command to the history if it's not empty or a duplicate
func (i *Input) AddToHistory(command string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}

	// Don't add if it's the same as the last command
	if len(i.history) > 0 && i.history[len(i.history)-1] == command {
		return
	}

	i.history = append(i.history, command)

	if len(i.history) > maxHistory {
		i.history = i.history[1:]
	}

	// Reset history index
	i.historyIndex = -1
	i.currentInput = ""
}

// NavigateHistoryUp moves up in command history
func (i *Input) NavigateHistoryUp() {
	if len(i.history) == 0 {
		return
	}

	// First time navigating: save current input
	if i.historyIndex == -1 {
		i.currentInput = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}

	i.textInput.SetValue(i.history[i.historyIndex])
	i.textInput.CursorEnd()
}

// NavigateHistoryDown moves down in command history
func (i *Input) NavigateHistoryDown() {
	if len(i.history) == 0 || i.historyIndex == -1 {
		return
	}

	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
	} else {
		// Back to current input
		i.historyIndex = -1
		i.textInput.SetValue(i.currentInput)
		i.currentInput = ""
	}
	i.textInput.CursorEnd()
}
