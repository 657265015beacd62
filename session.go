package serialcomm

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Forever makes Send repeat until its context is cancelled.
const Forever = -1

const readBufferSize = 4096

// Session owns one open serial port, the background reader attached to it
// and the optional transcript. A session is open from construction until
// Close; no operation is valid afterwards.
type Session struct {
	device     string
	id         string
	config     Config
	port       Port
	transcript *Transcript
	console    *Console
	logger     *zap.Logger

	mu        sync.Mutex
	closed    bool
	cancel    context.CancelFunc // stops the reader
	done      chan struct{}      // closed when the reader exits
	readerErr error
}

// Open opens device and returns a session ready to send. The port is held
// exclusively until Close.
func Open(device string, opts ...Option) (*Session, error) {
	config, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	port, err := openPort(device, config)
	if err != nil {
		config.Logger.Error("Failed to open serial port", zap.String("port", device), zap.Error(err))
		return nil, err
	}

	s, err := newSession(device, port, config)
	if err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

// NewSession wraps an already open port.
func NewSession(device string, port Port, opts ...Option) (*Session, error) {
	if port == nil {
		return nil, fmt.Errorf("%w: nil port", ErrInvalidConfig)
	}
	config, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newSession(device, port, config)
}

func newSession(device string, port Port, config Config) (*Session, error) {
	transcript, err := OpenTranscript(config.LogFile, config.LogFormat)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Session{
		device:     device,
		id:         id,
		config:     config,
		port:       port,
		transcript: transcript,
		console:    config.Console,
		logger: config.Logger.With(
			zap.String("port", device),
			zap.String("session_id", id),
		),
	}

	s.logger.Info("Serial session opened",
		zap.Int("baud_rate", config.BaudRate),
		zap.Int("data_bits", config.DataBits),
		zap.Stringer("parity", config.Parity),
		zap.Stringer("stop_bits", config.StopBits),
		zap.String("out_format", string(config.OutputFormat)),
		zap.String("log_file", config.LogFile),
	)
	return s, nil
}

// Device returns the port identifier the session was opened with
func (s *Session) Device() string {
	return s.device
}

// ID returns the identifier attached to this session's diagnostics
func (s *Session) ID() string {
	return s.id
}

// Config returns the session configuration
func (s *Session) Config() Config {
	return s.config
}

// ReaderErr returns the error that stopped the background reader, if any
func (s *Session) ReaderErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readerErr
}

// StartReader launches the background reader. It may be called once.
func (s *Session) StartReader() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.done != nil {
		return ErrReaderRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.readLoop(ctx, s.done)

	s.logger.Debug("Background reader started")
	return nil
}

func (s *Session) readLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	buffer := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := s.port.Read(buffer)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.mu.Lock()
			s.readerErr = err
			s.mu.Unlock()

			s.logger.Error("Serial read failed, stopping reader", zap.Error(err))
			s.console.Errorf("read error on %s: %v", s.device, err)
			return
		}

		if n == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.config.PollInterval):
			}
			continue
		}

		data := make([]byte, n)
		copy(data, buffer[:n])
		s.handleReceived(data)
	}
}

func (s *Session) handleReceived(data []byte) {
	out := strings.TrimRight(Format(data, s.config.OutputFormat), "\r\n")
	if out == "" {
		return
	}

	now := time.Now()
	if s.config.Verbose {
		s.console.Line(now, TagReceivedRaw, "0x"+hex.EncodeToString(data))
	}
	s.console.Line(now, TagReceived, out)

	if err := s.transcript.LogReceived(data); err != nil {
		s.logger.Warn("Failed to log received data", zap.Error(err))
	}
	s.logger.Debug("Data read from serial port", zap.Int("bytes_read", len(data)))
}

// Send writes payload count times, waiting delay after each write.
// With count == Forever it repeats until ctx is done. Cancellation is
// observed before every write and during the delay; the first write error
// ends the call.
func (s *Session) Send(ctx context.Context, payload []byte, count int, delay time.Duration) error {
	if count < 1 && count != Forever {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if delay < 0 {
		delay = 0
	}

	for i := 0; count == Forever || i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.isClosed() {
			return ErrSessionClosed
		}

		if err := s.writeOnce(payload); err != nil {
			return fmt.Errorf("send %d: %w", i+1, err)
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}

func (s *Session) writeOnce(payload []byte) error {
	n, err := s.port.Write(payload)
	if err != nil {
		s.logger.Error("Serial write failed", zap.Error(err))
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(payload) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(payload))
	}

	now := time.Now()
	if s.config.Verbose {
		s.console.Line(now, TagSentRaw, "0x"+hex.EncodeToString(payload))
	}
	s.console.Line(now, TagSent, Format(payload, s.config.OutputFormat))

	if s.config.LogSent {
		if err := s.transcript.LogSent(payload); err != nil {
			s.logger.Warn("Failed to log sent data", zap.Error(err))
		}
	}
	s.logger.Debug("Data written to serial port", zap.Int("bytes_written", n))
	return nil
}

// Close stops the reader, waiting at most the configured close timeout,
// then releases the port and the transcript.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		timer := time.NewTimer(s.config.CloseTimeout)
		select {
		case <-done:
			timer.Stop()
		case <-timer.C:
			s.logger.Warn("Background reader did not stop in time",
				zap.Duration("timeout", s.config.CloseTimeout))
		}
	}

	var errs []error
	if err := s.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close serial port: %w", err))
	}
	if err := s.transcript.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
	}

	s.logger.Info("Serial session closed")
	return errors.Join(errs...)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
