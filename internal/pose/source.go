package pose

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
)

// Source produces pose frames one at a time.
type Source interface {
	// Next returns the next frame. It returns io.EOF when the stream is exhausted.
	Next() (Frame, error)

	// Close releases any resources held by the source.
	Close() error
}

// DecodeError reports a line that could not be decoded. The stream stays usable.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// maxLineSize bounds one JSON envelope; 33 landmarks fit comfortably.
const maxLineSize = 1 << 20

// StreamSource reads newline-delimited JSON envelopes. Blank lines are skipped.
type StreamSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewStreamSource wraps r. If r is an io.Closer it is closed by Close.
func NewStreamSource(r io.Reader) *StreamSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	s := &StreamSource{scanner: sc}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenFile opens a JSON-lines recording.
func OpenFile(path string) (*StreamSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	return NewStreamSource(f), nil
}

// Next decodes the next non-blank line.
func (s *StreamSource) Next() (Frame, error) {
	for s.scanner.Scan() {
		s.line++
		data := bytes.TrimSpace(s.scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		f, err := DecodeFrame(data)
		if err != nil {
			return Frame{}, &DecodeError{Line: s.line, Err: err}
		}
		return f, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("read frames: %w", err)
	}
	return Frame{}, io.EOF
}

// Close closes the underlying reader when it is closable.
func (s *StreamSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// CommandSource runs an external pose estimator and reads envelopes from its stdout.
// The process is started lazily on the first call to Next.
type CommandSource struct {
	name string
	args []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stream  *StreamSource
	started bool
	closed  bool
}

// NewCommandSource creates a source for the given command line.
func NewCommandSource(name string, args ...string) *CommandSource {
	return &CommandSource{name: name, args: args}
}

// Next returns the next frame emitted by the process. It must not be called
// concurrently with itself; Close may be called at any time to unblock it.
func (c *CommandSource) Next() (Frame, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Frame{}, io.EOF
	}
	if err := c.ensureStarted(); err != nil {
		c.mu.Unlock()
		return Frame{}, err
	}
	stream := c.stream
	c.mu.Unlock()

	f, err := stream.Next()
	if err != nil && c.isClosed() {
		return Frame{}, io.EOF
	}
	return f, err
}

// Close kills the process, closes the read end of its stdout and waits for it to
// exit. A Next blocked on the pipe returns io.EOF, even when a child of the
// estimator still holds the write end. Later calls to Next return io.EOF.
func (c *CommandSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if !c.started {
		return nil
	}
	if c.cmd.Process != nil {
		if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Printf("Failed to kill pose estimator %s: %v", c.name, err)
		}
	}
	if err := c.stream.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Printf("Failed to close pose estimator output: %v", err)
	}
	err := c.cmd.Wait()
	c.started = false
	c.cmd = nil
	c.stream = nil

	// A killed estimator exits non-zero; that is the expected shutdown path.
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}

func (c *CommandSource) ensureStarted() error {
	if c.started {
		return nil
	}

	c.cmd = exec.Command(c.name, c.args...)
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	c.cmd.Stderr = os.Stderr

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start pose estimator: %w", err)
	}

	c.stream = NewStreamSource(stdout)
	c.started = true
	return nil
}

func (c *CommandSource) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
