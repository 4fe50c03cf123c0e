// Package replay emits the lines of a preloaded log file forever at a fixed
// cadence, standing in for an application that writes its logs to stdout.
package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"
)

var ErrEmptySource = errors.New("source log has no lines")

type Replayer struct {
	lines  []string
	cursor int
	delay  time.Duration
	out    io.Writer
	start  func(n int) int
}

type Option func(*Replayer)

func WithOutput(w io.Writer) Option {
	return func(r *Replayer) {
		r.out = w
	}
}

// WithStart overrides how the starting line is picked. f receives the number
// of lines and must return an index in [0, n).
func WithStart(f func(n int) int) Option {
	return func(r *Replayer) {
		r.start = f
	}
}

// New creates a Replayer over lines, which must not be empty.
func New(lines []string, delay time.Duration, opts ...Option) (*Replayer, error) {
	if len(lines) == 0 {
		return nil, ErrEmptySource
	}
	if delay < 0 {
		return nil, fmt.Errorf("negative delay %s", delay)
	}

	r := &Replayer{
		lines: lines,
		delay: delay,
		out:   os.Stdout,
		start: rand.Intn,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.cursor = r.start(len(lines))
	if r.cursor < 0 || r.cursor >= len(lines) {
		return nil, fmt.Errorf("start index %d out of range [0, %d)", r.cursor, len(lines))
	}
	return r, nil
}

// Open loads the file at path and creates a Replayer over its lines.
func Open(path string, delay time.Duration, opts ...Option) (*Replayer, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("opening source log: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("could not close source log", "path", path, "err", err)
		}
	}()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	r, err := New(lines, delay, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ReadLines splits r on newlines. A trailing newline does not produce an
// extra empty line, and a carriage return before a newline is dropped. Lines
// have no length limit.
func ReadLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)

	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (r *Replayer) Len() int {
	return len(r.lines)
}

// Cursor is the index of the line the next Step will emit.
func (r *Replayer) Cursor() int {
	return r.cursor
}

// Step writes the line under the cursor and advances it, wrapping at the end.
func (r *Replayer) Step() error {
	if _, err := fmt.Fprintln(r.out, r.lines[r.cursor]); err != nil {
		return fmt.Errorf("emitting line %d: %w", r.cursor, err)
	}
	r.cursor = (r.cursor + 1) % len(r.lines)
	return nil
}

// Run emits a line, then waits for the delay, until ctx is done. The wait is
// abandoned as soon as ctx is cancelled. Cancellation is a clean stop and
// returns nil; only write failures are reported.
func (r *Replayer) Run(ctx context.Context) error {
	slog.Info("replaying", "lines", len(r.lines), "start", r.cursor, "delay", r.delay)

	emitted := 0
	for {
		if ctx.Err() != nil {
			slog.Info("replay stopped", "emitted", emitted)
			return nil
		}

		if err := r.Step(); err != nil {
			return err
		}
		emitted++

		timer := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("replay stopped", "emitted", emitted)
			return nil
		case <-timer.C:
		}
	}
}
