package serialcomm

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// LogFormat is the line style of a transcript file
type LogFormat string

const (
	LogFormatPlain LogFormat = "plain"
	LogFormatCSV   LogFormat = "csv"
	LogFormatJSON  LogFormat = "json"
)

// LogFormats lists every accepted transcript format, default first.
var LogFormats = []LogFormat{LogFormatPlain, LogFormatJSON, LogFormatCSV}

// Direction tags written to the transcript
const (
	DirectionSent     = "SENT"
	DirectionReceived = "RECV"
)

// TranscriptTimeLayout matches the classic "asctime" layout with milliseconds.
const TranscriptTimeLayout = "2006-01-02 15:04:05,000"

// ParseLogFormat validates a transcript format name
func ParseLogFormat(s string) (LogFormat, error) {
	f := LogFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range LogFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, s)
}

// Transcript appends one line per sent or received payload. A nil
// *Transcript is valid and discards everything.
type Transcript struct {
	mu     sync.Mutex
	w      io.WriteCloser
	format LogFormat
	now    func() time.Time
}

// OpenTranscript opens path for appending. An empty path disables the
// transcript and returns nil without error.
func OpenTranscript(path string, format LogFormat) (*Transcript, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := ParseLogFormat(string(format)); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return newTranscript(file, format), nil
}

func newTranscript(w io.WriteCloser, format LogFormat) *Transcript {
	return &Transcript{
		w:      w,
		format: format,
		now:    time.Now,
	}
}

// LogSent records a payload written to the port
func (t *Transcript) LogSent(data []byte) error {
	return t.append(DirectionSent, data)
}

// LogReceived records a chunk read from the port
func (t *Transcript) LogReceived(data []byte) error {
	return t.append(DirectionReceived, data)
}

// Close closes the underlying file
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Close()
}

func (t *Transcript) append(direction string, data []byte) error {
	if t == nil {
		return nil
	}

	line, err := formatTranscriptLine(t.format, t.now(), direction, data)
	if err != nil {
		return err
	}

	// One write per line keeps lines whole when the reader and the
	// sender log at the same time.
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, line); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

type jsonTranscriptLine struct {
	Timestamp string `json:"timestamp"`
	Msg       string `json:"msg"`
}

func formatTranscriptLine(format LogFormat, ts time.Time, direction string, data []byte) (string, error) {
	stamp := ts.Format(TranscriptTimeLayout)
	msg := direction + "," + hex.EncodeToString(data)

	switch format {
	case LogFormatCSV:
		return stamp + "," + msg + "\n", nil
	case LogFormatJSON:
		encoded, err := json.Marshal(jsonTranscriptLine{Timestamp: stamp, Msg: msg})
		if err != nil {
			return "", fmt.Errorf("failed to encode transcript line: %w", err)
		}
		return string(encoded) + "\n", nil
	default:
		return stamp + " - " + msg + "\n", nil
	}
}
