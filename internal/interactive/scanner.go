package interactive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

const maxLineLength = 1024 * 1024

type scanResult struct {
	line string
	err  error
}

// ScannerReader reads lines from a plain io.Reader such as a pipe. The
// underlying reader is consumed by one goroutine so that ReadLine can
// return as soon as ctx is done.
type ScannerReader struct {
	in     io.Reader
	out    io.Writer
	prompt string

	once  sync.Once
	lines chan scanResult
}

// NewScannerReader reads from in. When out is not nil, prompt is written to
// it before every line.
func NewScannerReader(in io.Reader, out io.Writer, prompt string) *ScannerReader {
	return &ScannerReader{
		in:     in,
		out:    out,
		prompt: prompt,
		lines:  make(chan scanResult, 1),
	}
}

// ReadLine implements LineReader
func (r *ScannerReader) ReadLine(ctx context.Context) (string, error) {
	r.once.Do(r.start)

	if r.out != nil && r.prompt != "" {
		fmt.Fprint(r.out, r.prompt)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

func (r *ScannerReader) start() {
	go func() {
		defer close(r.lines)

		scanner := bufio.NewScanner(r.in)
		scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
		for scanner.Scan() {
			r.lines <- scanResult{line: scanner.Text()}
		}
		if err := scanner.Err(); err != nil {
			r.lines <- scanResult{err: fmt.Errorf("failed to read input: %w", err)}
		}
	}()
}
