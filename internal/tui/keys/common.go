package keys

import "github.com/charmbracelet/bubbles/key"

// PromptKeys are the bindings of the line prompt
type PromptKeys struct {
	Enter     key.Binding
	Up        key.Binding
	Down      key.Binding
	Interrupt key.Binding
	EOF       key.Binding
}

func NewPromptKeys() PromptKeys {
	return PromptKeys{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "next"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		EOF: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "end input"),
		),
	}
}

func (k PromptKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Up, k.Down, k.Interrupt}
}

func (k PromptKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.Up, k.Down},
		{k.EOF, k.Interrupt},
	}
}
