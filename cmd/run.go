/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/allbin/serialcomm"
	"github.com/allbin/serialcomm/internal/interactive"
	"github.com/allbin/serialcomm/internal/tui"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// session is the part of serialcomm.Session the dispatcher drives
type session interface {
	StartReader() error
	Send(ctx context.Context, payload []byte, count int, delay time.Duration) error
	Close() error
}

type openFunc func(device string, opts ...serialcomm.Option) (session, error)

func openSession(device string, opts ...serialcomm.Option) (session, error) {
	s, err := serialcomm.Open(device, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// runner holds everything one invocation needs
type runner struct {
	settings  settings
	open      openFunc
	newReader func() interactive.LineReader
	console   *serialcomm.Console
	logger    *zap.Logger
}

// run opens the port, starts the reader and performs exactly one mode:
// send file, send message or the interactive loop. The port is opened
// before the send file is read.
func (r *runner) run(ctx context.Context) (err error) {
	opts := append(r.settings.sessionOptions(),
		serialcomm.WithConsole(r.console),
		serialcomm.WithLogger(r.logger),
	)

	s, err := r.open(r.settings.Port, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && !errors.Is(closeErr, serialcomm.ErrSessionClosed) {
			err = errors.Join(err, closeErr)
		}
	}()

	if err := s.StartReader(); err != nil {
		return err
	}

	switch {
	case r.settings.SendFile != "":
		data, err := os.ReadFile(r.settings.SendFile)
		if err != nil {
			return fmt.Errorf("failed to read send file: %w", err)
		}
		r.logger.Info("Sending file", zap.String("path", r.settings.SendFile), zap.Int("bytes", len(data)))
		return r.send(ctx, s, data)

	case r.settings.Message != "":
		payload, err := serialcomm.Encode(r.settings.Message)
		if err != nil {
			return err
		}
		return r.send(ctx, s, payload)

	default:
		return interactive.Run(ctx, r.newReader(), s, interactive.Options{
			Count: r.settings.Spam,
			Delay: r.settings.Delay,
			Report: func(err error) {
				r.console.Errorf("%v", err)
			},
		})
	}
}

// send performs a one-shot send. An interrupt ends it cleanly.
func (r *runner) send(ctx context.Context, s session, payload []byte) error {
	err := s.Send(ctx, payload, r.settings.Spam, r.settings.Delay)
	if err != nil && ctx.Err() != nil {
		r.logger.Info("Send interrupted", zap.Error(err))
		return nil
	}
	return err
}

// terminalReader picks the bubbletea prompt on an interactive terminal and
// a plain line scanner otherwise.
func terminalReader(console *serialcomm.Console) func() interactive.LineReader {
	return func() interactive.LineReader {
		stdinTTY := isTerminal(os.Stdin)
		if stdinTTY && isTerminal(os.Stdout) {
			return tui.NewPrompt(console)
		}
		prompt := ""
		if stdinTTY {
			prompt = tui.DefaultPrompt
		}
		return interactive.NewScannerReader(os.Stdin, os.Stdout, prompt)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
