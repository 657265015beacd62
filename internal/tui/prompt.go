// Package tui holds the terminal prompt used by the interactive loop.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/allbin/serialcomm"
	"github.com/allbin/serialcomm/internal/interactive"
	"github.com/allbin/serialcomm/internal/tui/components"
	"github.com/allbin/serialcomm/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultPrompt is shown in front of the input field
const DefaultPrompt = "> "

// Prompt reads operator lines with a bubbletea text input. History is kept
// across lines. While the prompt is active, console output is queued and
// printed above the input field.
type Prompt struct {
	console *serialcomm.Console
	input   *components.Input
	in      io.Reader
	out     io.Writer

	mu      sync.Mutex
	pending []string
}

// NewPrompt creates a prompt on the process terminal. Console lines are
// routed through the prompt while a line is being read.
func NewPrompt(console *serialcomm.Console) *Prompt {
	return newPrompt(console, os.Stdin, os.Stdout)
}

func newPrompt(console *serialcomm.Console, in io.Reader, out io.Writer) *Prompt {
	return &Prompt{
		console: console,
		input:   components.NewInput(DefaultPrompt),
		in:      in,
		out:     out,
	}
}

// ReadLine implements interactive.LineReader
func (p *Prompt) ReadLine(ctx context.Context) (string, error) {
	model := models.NewPromptModel(p.input, p.drain)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)

	restore := p.console.Redirect(func(line string) {
		p.mu.Lock()
		p.pending = append(p.pending, line)
		p.mu.Unlock()
		program.Send(models.FlushMsg{})
	})
	final, err := program.Run()
	restore()

	// Lines that arrived while the program was shutting down
	for _, line := range p.drain() {
		p.console.Println(line)
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return "", interactive.ErrInterrupted
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	result, ok := final.(*models.PromptModel)
	if !ok {
		return "", fmt.Errorf("prompt failed: unexpected model %T", final)
	}
	switch result.Outcome() {
	case models.OutcomeSubmitted:
		return result.Value(), nil
	case models.OutcomeEOF:
		return "", io.EOF
	default:
		return "", interactive.ErrInterrupted
	}
}

// History returns the lines entered so far
func (p *Prompt) History() []string {
	return p.input.History()
}

func (p *Prompt) drain() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	lines := p.pending
	p.pending = nil
	return lines
}
