package serialcomm

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// ParseParity accepts the single-letter codes N, E, O, M, S or the full names.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "none":
		return ParityNone, nil
	case "o", "odd":
		return ParityOdd, nil
	case "e", "even":
		return ParityEven, nil
	case "m", "mark":
		return ParityMark, nil
	case "s", "space":
		return ParitySpace, nil
	}
	return ParityNone, fmt.Errorf("%w: unknown parity %q", ErrInvalidConfig, s)
}

func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	case ParityMark:
		return "M"
	case ParitySpace:
		return "S"
	default:
		return "N"
	}
}

func (p Parity) mode() serial.Parity {
	switch p {
	case ParityOdd:
		return serial.OddParity
	case ParityEven:
		return serial.EvenParity
	case ParityMark:
		return serial.MarkParity
	case ParitySpace:
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

// StopBits represents the number of stop bits
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsOnePointFive
	StopBitsTwo
)

// ParseStopBits accepts "1", "1.5" or "2".
func ParseStopBits(s string) (StopBits, error) {
	switch strings.TrimSpace(s) {
	case "1", "1.0":
		return StopBitsOne, nil
	case "1.5":
		return StopBitsOnePointFive, nil
	case "2", "2.0":
		return StopBitsTwo, nil
	}
	return StopBitsOne, fmt.Errorf("%w: unsupported stop bits %q", ErrInvalidConfig, s)
}

func (s StopBits) String() string {
	switch s {
	case StopBitsOnePointFive:
		return "1.5"
	case StopBitsTwo:
		return "2"
	default:
		return "1"
	}
}

func (s StopBits) mode() serial.StopBits {
	return s.modeFor(runtime.GOOS)
}

// modeFor maps s onto the driver setting for goos. Only Windows drivers
// accept 1.5 stop bits; POSIX termios has no such setting and uses 2.
func (s StopBits) modeFor(goos string) serial.StopBits {
	switch s {
	case StopBitsOnePointFive:
		if goos != "windows" {
			return serial.TwoStopBits
		}
		return serial.OnePointFiveStopBits
	case StopBitsTwo:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

// Config holds the configuration for a serial session
type Config struct {
	BaudRate int
	DataBits int
	StopBits StopBits
	Parity   Parity

	OutputFormat OutputFormat
	Verbose      bool

	LogFile   string    // transcript path, empty disables the transcript
	LogFormat LogFormat // transcript line style
	LogSent   bool      // when false, sent payloads are not written to the transcript

	ReadTimeout  time.Duration // driver read timeout for one poll
	PollInterval time.Duration // wait between polls that returned no data
	CloseTimeout time.Duration // bounded wait for the reader on Close

	Console *Console
	Logger  *zap.Logger
}

// Option is a functional option for configuring a serial session
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:     9600,
		DataBits:     8,
		StopBits:     StopBitsOne,
		Parity:       ParityNone,
		OutputFormat: FormatAutodetect,
		LogFormat:    LogFormatPlain,
		LogSent:      true,
		ReadTimeout:  100 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		CloseTimeout: time.Second,
	}
}

func buildConfig(opts []Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	if config.Console == nil {
		config.Console = NewConsole(nil)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return config, nil
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidBaudRate, rate)
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return fmt.Errorf("%w: data bits must be 5-8, got %d", ErrInvalidConfig, bits)
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits
func WithStopBits(bits StopBits) Option {
	return func(c *Config) error {
		if bits < StopBitsOne || bits > StopBitsTwo {
			return fmt.Errorf("%w: stop bits %d", ErrInvalidConfig, bits)
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParitySpace {
			return fmt.Errorf("%w: parity %d", ErrInvalidConfig, parity)
		}
		c.Parity = parity
		return nil
	}
}

// WithOutputFormat sets how traffic is rendered on the console
func WithOutputFormat(format OutputFormat) Option {
	return func(c *Config) error {
		if _, err := ParseOutputFormat(string(format)); err != nil {
			return err
		}
		c.OutputFormat = format
		return nil
	}
}

// WithVerbose adds raw hex lines next to every rendered line
func WithVerbose(verbose bool) Option {
	return func(c *Config) error {
		c.Verbose = verbose
		return nil
	}
}

// WithTranscript appends every SENT/RECV event to path
func WithTranscript(path string, format LogFormat) Option {
	return func(c *Config) error {
		if _, err := ParseLogFormat(string(format)); err != nil {
			return err
		}
		c.LogFile = path
		c.LogFormat = format
		return nil
	}
}

// WithoutSentLogging keeps sent payloads out of the transcript
func WithoutSentLogging() Option {
	return func(c *Config) error {
		c.LogSent = false
		return nil
	}
}

// WithReadTimeout sets the driver read timeout used by each poll
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 {
			return fmt.Errorf("%w: negative read timeout", ErrInvalidConfig)
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithPollInterval sets the wait between polls that returned no data
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) error {
		if interval <= 0 {
			return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
		}
		c.PollInterval = interval
		return nil
	}
}

// WithCloseTimeout bounds how long Close waits for the reader
func WithCloseTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: close timeout must be positive", ErrInvalidConfig)
		}
		c.CloseTimeout = timeout
		return nil
	}
}

// WithConsole routes traffic lines through an existing console
func WithConsole(console *Console) Option {
	return func(c *Config) error {
		c.Console = console
		return nil
	}
}

// WithOutput prints traffic lines to w
func WithOutput(w io.Writer) Option {
	return func(c *Config) error {
		c.Console = NewConsole(w)
		return nil
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}
