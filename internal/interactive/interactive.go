// Package interactive runs the operator loop: read a line, encode it, send it.
package interactive

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/allbin/serialcomm"
)

// ErrInterrupted is returned by a LineReader when the operator interrupts
// the prompt (ctrl+c while the prompt owns the terminal).
var ErrInterrupted = errors.New("interrupted")

// LineReader returns one line of operator input per call. It returns io.EOF
// at end of input and ErrInterrupted on an interrupt.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// Sender is the part of a session the loop drives
type Sender interface {
	Send(ctx context.Context, payload []byte, count int, delay time.Duration) error
}

// Options control every send issued by the loop
type Options struct {
	Count  int
	Delay  time.Duration
	Report func(err error) // receives errors that do not end the loop
}

// Run reads lines until exit/quit, end of input, an interrupt or ctx is
// done. Encoding and write errors are reported and the loop continues.
func Run(ctx context.Context, r LineReader, s Sender, opts Options) error {
	if opts.Count == 0 {
		opts.Count = 1
	}
	report := opts.Report
	if report == nil {
		report = func(error) {}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.ReadLine(ctx)
		if err != nil {
			if isStop(ctx, err) {
				return nil
			}
			return err
		}

		msg := strings.TrimSpace(line)
		if msg == "" {
			continue
		}
		if isExit(msg) {
			return nil
		}

		payload, err := serialcomm.Encode(msg)
		if err != nil {
			report(err)
			continue
		}

		if err := s.Send(ctx, payload, opts.Count, opts.Delay); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, serialcomm.ErrSessionClosed) {
				return err
			}
			report(err)
		}
	}
}

func isExit(msg string) bool {
	switch strings.ToLower(msg) {
	case "exit", "quit":
		return true
	}
	return false
}

func isStop(ctx context.Context, err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, ErrInterrupted) ||
		ctx.Err() != nil
}
