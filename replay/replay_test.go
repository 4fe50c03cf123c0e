package replay

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emission struct {
	line string
	at   time.Time
}

// chanWriter forwards every write to a channel with the time it happened.
type chanWriter chan emission

func (c chanWriter) Write(p []byte) (int, error) {
	c <- emission{line: strings.TrimSuffix(string(p), "\n"), at: time.Now()}
	return len(p), nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("pipe closed")
}

func startAt(i int) Option {
	return WithStart(func(int) int { return i })
}

func TestNewEmpty(t *testing.T) {
	r, err := New(nil, time.Second)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestNewNegativeDelay(t *testing.T) {
	_, err := New([]string{"a"}, -time.Second)
	assert.Error(t, err)
}

func TestNewStartOutOfRange(t *testing.T) {
	_, err := New([]string{"a", "b"}, 0, startAt(2))
	assert.Error(t, err)
}

func TestStepCyclesFromStart(t *testing.T) {
	var buf bytes.Buffer
	r, err := New([]string{"a", "b", "c"}, 0, WithOutput(&buf), startAt(1))
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.NoError(t, r.Step())
	}
	assert.Equal(t, "b\nc\na\nb\nc\na\n", buf.String())
	assert.Equal(t, 1, r.Cursor())
}

func TestStepSingleLine(t *testing.T) {
	var buf bytes.Buffer
	r, err := New([]string{"only"}, 0, WithOutput(&buf))
	require.NoError(t, err)

	require.NoError(t, r.Step())
	require.NoError(t, r.Step())
	assert.Equal(t, "only\nonly\n", buf.String())
	assert.Equal(t, 0, r.Cursor())
}

func TestStepWriteError(t *testing.T) {
	r, err := New([]string{"a"}, 0, WithOutput(failingWriter{}))
	require.NoError(t, err)
	assert.ErrorContains(t, r.Step(), "pipe closed")
}

func TestDefaultStartInRange(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < 200; i++ {
		r, err := New(lines, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.Cursor(), 0)
		assert.Less(t, r.Cursor(), len(lines))
	}
}

func TestReadLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"trailing newline", "a\nb\nc\n", []string{"a", "b", "c"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"final cr", "a\nb\r", []string{"a", "b"}},
		{"blank lines kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := ReadLines(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestReadLinesLong(t *testing.T) {
	long := strings.Repeat("x", 3<<20)
	lines, err := ReadLines(strings.NewReader(long + "\nshort\n"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Len(t, lines[0], len(long))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "sample.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o600))
	r, err := Open(path, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	empty := filepath.Join(dir, "empty.log")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = Open(empty, time.Second)
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Open(filepath.Join(dir, "missing.log"), time.Second)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunSpacing(t *testing.T) {
	const delay = 20 * time.Millisecond
	out := make(chanWriter, 16)
	r, err := New([]string{"a", "b", "c"}, delay, WithOutput(out), startAt(2))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	var got []emission
	for len(got) < 5 {
		got = append(got, <-out)
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, "c", got[0].line)
	assert.Equal(t, "a", got[1].line)
	assert.Equal(t, "b", got[2].line)
	assert.Equal(t, "c", got[3].line)
	assert.Equal(t, "a", got[4].line)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].at.Sub(got[i-1].at), delay)
	}
}

func TestRunCancelInterruptsDelay(t *testing.T) {
	out := make(chanWriter, 1)
	r, err := New([]string{"a"}, time.Hour, WithOutput(out))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	<-out
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunAlreadyCancelled(t *testing.T) {
	var buf bytes.Buffer
	r, err := New([]string{"a"}, 0, WithOutput(&buf))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, r.Run(ctx))
	assert.Empty(t, buf.String())
}

func TestRunWriteError(t *testing.T) {
	r, err := New([]string{"a"}, 0, WithOutput(failingWriter{}))
	require.NoError(t, err)
	assert.Error(t, r.Run(context.Background()))
}
