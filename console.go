package serialcomm

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/allbin/serialcomm/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// Console line tags
const (
	TagReceived    = "REC"
	TagReceivedRaw = "REC RAW"
	TagSent        = "SEND"
	TagSentRaw     = "SEND RAW"
)

// ConsoleTimeLayout is the timestamp layout of traffic lines.
const ConsoleTimeLayout = "2006-01-02 15:04:05"

// Console prints whole traffic lines for the reader goroutine and the
// foreground sender. Styling follows the capabilities of the destination
// writer, so output to a pipe or file carries no escape codes.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	sink func(line string)

	stampStyle lipgloss.Style
	rxStyle    lipgloss.Style
	txStyle    lipgloss.Style
	rawStyle   lipgloss.Style
	errorStyle lipgloss.Style
}

// NewConsole creates a console writing to w, or to stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)

	return &Console{
		w:          w,
		stampStyle: r.NewStyle().Foreground(colors.Subtext0),
		rxStyle:    r.NewStyle().Foreground(colors.Sky).Bold(true),
		txStyle:    r.NewStyle().Foreground(colors.Peach).Bold(true),
		rawStyle:   r.NewStyle().Foreground(colors.Overlay0),
		errorStyle: r.NewStyle().Foreground(colors.Red).Bold(true),
	}
}

// Line prints "[timestamp] TAG: text".
func (c *Console) Line(ts time.Time, tag, text string) {
	stamp := c.stampStyle.Render("[" + ts.Format(ConsoleTimeLayout) + "]")
	c.Println(fmt.Sprintf("%s %s: %s", stamp, c.tagStyle(tag).Render(tag), text))
}

// Errorf prints an error line.
func (c *Console) Errorf(format string, args ...any) {
	c.Println(c.errorStyle.Render("✗") + " " + fmt.Sprintf(format, args...))
}

// Println prints one line as is.
func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink != nil {
		c.sink(line)
		return
	}
	fmt.Fprintln(c.w, line)
}

// Redirect hands every following line to sink instead of the writer, until
// the returned restore function is called. It is used while an interactive
// prompt owns the terminal.
func (c *Console) Redirect(sink func(line string)) (restore func()) {
	c.mu.Lock()
	previous := c.sink
	c.sink = sink
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.sink = previous
		c.mu.Unlock()
	}
}

func (c *Console) tagStyle(tag string) lipgloss.Style {
	switch tag {
	case TagReceived:
		return c.rxStyle
	case TagSent:
		return c.txStyle
	default:
		return c.rawStyle
	}
}
