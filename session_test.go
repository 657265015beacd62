package serialcomm

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRead is one scripted result of fakePort.Read
type fakeRead struct {
	data []byte
	err  error
}

// fakePort is an in-memory Port. Reads come from a channel and time out
// like a driver with a short read timeout.
type fakePort struct {
	mu       sync.Mutex
	reads    chan fakeRead
	writes   [][]byte
	writeErr error
	closed   bool
	block    chan struct{} // when set, Read blocks until it is closed
}

func newFakePort() *fakePort {
	return &fakePort{reads: make(chan fakeRead, 16)}
}

func (p *fakePort) Read(buf []byte) (int, error) {
	if p.block != nil {
		<-p.block
		return 0, nil
	}
	select {
	case r := <-p.reads:
		return copy(buf, r.data), r.err
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.writes = append(p.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) written() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.writes...)
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// syncBuffer is a bytes.Buffer safe for the reader goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestSession(t *testing.T, port Port, opts ...Option) (*Session, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	opts = append([]Option{WithOutput(out), WithPollInterval(time.Millisecond)}, opts...)
	s, err := NewSession("/dev/fake0", port, opts...)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s, out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	trimmed := strings.TrimRight(string(content), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestNewSessionNilPort(t *testing.T) {
	_, err := NewSession("/dev/fake0", nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestSendRepeatsPayload(t *testing.T) {
	port := newFakePort()
	logPath := filepath.Join(t.TempDir(), "traffic.log")
	s, out := newTestSession(t, port, WithTranscript(logPath, LogFormatCSV))

	if err := s.Send(context.Background(), []byte("ping"), 3, 0); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	writes := port.written()
	if len(writes) != 3 {
		t.Fatalf("Expected 3 writes, got %d", len(writes))
	}
	for i, w := range writes {
		if string(w) != "ping" {
			t.Errorf("write %d = %q, want ping", i, w)
		}
	}

	if got := strings.Count(out.String(), "SEND: ping"); got != 3 {
		t.Errorf("Expected 3 SEND lines, got %d in %q", got, out.String())
	}

	lines := readLines(t, logPath)
	if len(lines) != 3 {
		t.Fatalf("Expected 3 transcript lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, ",SENT,70696e67") {
			t.Errorf("Unexpected transcript line %q", line)
		}
	}
}

func TestSendVerbose(t *testing.T) {
	port := newFakePort()
	s, out := newTestSession(t, port, WithVerbose(true), WithOutputFormat(FormatHex))
	defer s.Close()

	if err := s.Send(context.Background(), []byte{0x01, 0x02}, 1, 0); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "SEND RAW: 0x0102") {
		t.Errorf("Missing raw line in %q", text)
	}
	if !strings.Contains(text, "SEND: 0x0102") {
		t.Errorf("Missing rendered line in %q", text)
	}
	if strings.Index(text, "SEND RAW:") > strings.Index(text, "SEND: ") {
		t.Errorf("Raw line should precede rendered line: %q", text)
	}
}

func TestSendWithoutSentLogging(t *testing.T) {
	port := newFakePort()
	logPath := filepath.Join(t.TempDir(), "traffic.log")
	s, _ := newTestSession(t, port, WithTranscript(logPath, LogFormatPlain), WithoutSentLogging())

	if err := s.Send(context.Background(), []byte("x"), 2, 0); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	s.Close()

	if len(port.written()) != 2 {
		t.Errorf("Expected 2 writes")
	}
	if lines := readLines(t, logPath); len(lines) != 0 {
		t.Errorf("Expected no transcript lines, got %q", lines)
	}
}

func TestSendInvalidCount(t *testing.T) {
	s, _ := newTestSession(t, newFakePort())
	defer s.Close()

	for _, count := range []int{0, -2} {
		err := s.Send(context.Background(), []byte("x"), count, 0)
		if !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Send(count=%d) error = %v, want ErrInvalidCount", count, err)
		}
	}
}

func TestSendWriteError(t *testing.T) {
	port := newFakePort()
	writeErr := errors.New("device unplugged")
	port.writeErr = writeErr
	s, out := newTestSession(t, port)
	defer s.Close()

	err := s.Send(context.Background(), []byte("x"), 5, 0)
	if !errors.Is(err, writeErr) {
		t.Fatalf("Expected write error, got %v", err)
	}
	if strings.Contains(out.String(), "SEND:") {
		t.Errorf("Failed write must not be reported as sent: %q", out.String())
	}
}

func TestSendForeverStopsOnCancel(t *testing.T) {
	port := newFakePort()
	s, _ := newTestSession(t, port)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for len(port.written()) < 3 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	err := s.Send(ctx, []byte("x"), Forever, time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(port.written()) < 3 {
		t.Errorf("Expected at least 3 writes before cancel")
	}
}

func TestSendDelayBetweenRepetitions(t *testing.T) {
	port := newFakePort()
	s, _ := newTestSession(t, port)
	defer s.Close()

	start := time.Now()
	if err := s.Send(context.Background(), []byte("x"), 3, 20*time.Millisecond); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("Expected a delay after each of the 3 writes, took %v", elapsed)
	}
}

func TestSendWaitsAfterFinalWrite(t *testing.T) {
	port := newFakePort()
	s, _ := newTestSession(t, port)
	defer s.Close()

	start := time.Now()
	if err := s.Send(context.Background(), []byte("x"), 1, 30*time.Millisecond); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Expected the delay after a single write, took %v", elapsed)
	}
	if len(port.written()) != 1 {
		t.Errorf("Expected 1 write, got %d", len(port.written()))
	}
}

func TestSendCancelDuringFinalDelay(t *testing.T) {
	port := newFakePort()
	s, _ := newTestSession(t, port)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.Send(ctx, []byte("x"), 1, time.Minute)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Cancellation should end the delay, took %v", elapsed)
	}
	if len(port.written()) != 1 {
		t.Errorf("Expected the write to happen before the delay, got %d writes", len(port.written()))
	}
}

func TestReaderPrintsAndLogs(t *testing.T) {
	port := newFakePort()
	logPath := filepath.Join(t.TempDir(), "traffic.log")
	s, out := newTestSession(t, port, WithVerbose(true), WithTranscript(logPath, LogFormatPlain))

	if err := s.StartReader(); err != nil {
		t.Fatalf("StartReader failed: %v", err)
	}
	port.reads <- fakeRead{data: []byte("hello\r\n")}

	waitFor(t, "REC line", func() bool { return strings.Contains(out.String(), "REC: hello") })
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "REC RAW: 0x68656c6c6f0d0a") {
		t.Errorf("Missing raw line in %q", text)
	}
	if strings.Contains(text, "hello\r") {
		t.Errorf("Trailing newline characters should be stripped: %q", text)
	}

	lines := readLines(t, logPath)
	if len(lines) != 1 || !strings.HasSuffix(lines[0], " - RECV,68656c6c6f0d0a") {
		t.Errorf("Unexpected transcript %q", lines)
	}
}

func TestReaderRendersNonPrintableAsHex(t *testing.T) {
	port := newFakePort()
	s, out := newTestSession(t, port)
	defer s.Close()

	s.StartReader()
	port.reads <- fakeRead{data: []byte{0x07, 0x00}}

	waitFor(t, "REC line", func() bool { return strings.Contains(out.String(), "REC: 0x0700") })
}

func TestReaderSkipsBlankChunks(t *testing.T) {
	port := newFakePort()
	logPath := filepath.Join(t.TempDir(), "traffic.log")
	s, out := newTestSession(t, port, WithTranscript(logPath, LogFormatPlain))

	s.StartReader()
	port.reads <- fakeRead{data: []byte("\r\n")}
	port.reads <- fakeRead{data: []byte("next")}

	waitFor(t, "REC line", func() bool { return strings.Contains(out.String(), "REC: next") })
	s.Close()

	if got := strings.Count(out.String(), "REC:"); got != 1 {
		t.Errorf("Expected a single REC line, got %d: %q", got, out.String())
	}
	if lines := readLines(t, logPath); len(lines) != 1 {
		t.Errorf("Expected one transcript line, got %q", lines)
	}
}

func TestReaderErrorStopsReader(t *testing.T) {
	port := newFakePort()
	s, out := newTestSession(t, port)
	defer s.Close()

	readErr := errors.New("input/output error")
	s.StartReader()
	port.reads <- fakeRead{err: readErr}

	waitFor(t, "reader error", func() bool { return s.ReaderErr() != nil })
	if !errors.Is(s.ReaderErr(), readErr) {
		t.Errorf("ReaderErr() = %v, want %v", s.ReaderErr(), readErr)
	}
	if !strings.Contains(out.String(), "read error") {
		t.Errorf("Read error was not surfaced: %q", out.String())
	}
}

func TestStartReaderTwice(t *testing.T) {
	s, _ := newTestSession(t, newFakePort())
	defer s.Close()

	if err := s.StartReader(); err != nil {
		t.Fatalf("StartReader failed: %v", err)
	}
	if err := s.StartReader(); !errors.Is(err, ErrReaderRunning) {
		t.Errorf("Expected ErrReaderRunning, got %v", err)
	}
}

func TestCloseReleasesPort(t *testing.T) {
	port := newFakePort()
	s, _ := newTestSession(t, port)

	if err := s.StartReader(); err != nil {
		t.Fatalf("StartReader failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !port.isClosed() {
		t.Error("Port was not closed")
	}

	if err := s.Close(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Second Close error = %v, want ErrSessionClosed", err)
	}
	if err := s.Send(context.Background(), []byte("x"), 1, 0); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Send after Close error = %v, want ErrSessionClosed", err)
	}
	if err := s.StartReader(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("StartReader after Close error = %v, want ErrSessionClosed", err)
	}
}

func TestCloseBoundedWait(t *testing.T) {
	port := newFakePort()
	port.block = make(chan struct{})
	defer close(port.block)

	s, _ := newTestSession(t, port, WithCloseTimeout(50*time.Millisecond))
	s.StartReader()

	start := time.Now()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close waited %v, expected the bounded timeout", elapsed)
	}
	if !port.isClosed() {
		t.Error("Port was not released after the timeout")
	}
}
