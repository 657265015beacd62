package serialcomm

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestConsoleLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	c.Line(ts, TagReceived, "OK")

	// Non-terminal writers get no escape codes
	want := "[2024-01-02 03:04:05] REC: OK\n"
	if buf.String() != want {
		t.Errorf("Line wrote %q, want %q", buf.String(), want)
	}
}

func TestConsoleTags(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	ts := time.Now()

	for _, tag := range []string{TagReceived, TagReceivedRaw, TagSent, TagSentRaw} {
		c.Line(ts, tag, "x")
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %q", lines)
	}
	for i, tag := range []string{"REC: x", "REC RAW: x", "SEND: x", "SEND RAW: x"} {
		if !strings.HasSuffix(lines[i], "] "+tag) {
			t.Errorf("line %d = %q, want suffix %q", i, lines[i], tag)
		}
	}
}

func TestConsoleErrorf(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Errorf("write failed: %s", "EIO")

	if !strings.Contains(buf.String(), "write failed: EIO") {
		t.Errorf("Errorf wrote %q", buf.String())
	}
}

func TestConsoleRedirect(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	var captured []string
	restore := c.Redirect(func(line string) {
		captured = append(captured, line)
	})
	c.Println("while redirected")
	restore()
	c.Println("after restore")

	if len(captured) != 1 || captured[0] != "while redirected" {
		t.Errorf("Sink received %q", captured)
	}
	if buf.String() != "after restore\n" {
		t.Errorf("Writer received %q", buf.String())
	}
}
