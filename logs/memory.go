package logs

// Memory keeps the most recent log lines in a rotating ring, plus a fixed
// number of lines from startup that are never rotated out. Session startup
// is where most connection problems show up, so those lines stay available
// for the diagnostic dump even after hours of traffic.

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// hard cap per line, to bound memory on a misbehaving writer
const maxLineLength = 500

type Memory struct {
	mu         sync.Mutex
	maxLines   int
	lines      [][]byte
	startCount int
	startLines [][]byte
}

func NewMemory(size, startSize int) *Memory {
	return &Memory{
		maxLines:   size,
		lines:      make([][]byte, 0, size),
		startCount: startSize,
		startLines: make([][]byte, 0, startSize),
	}
}

// Write stores one line. It implements io.Writer so Memory can sit behind
// the zerolog multi-writer.
func (m *Memory) Write(p []byte) (int, error) {
	if len(p) > maxLineLength {
		return 0, errors.New("input too long")
	}

	line := make([]byte, len(p))
	copy(line, p)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.startLines) < m.startCount {
		m.startLines = append(m.startLines, line)
		return len(p), nil
	}
	for len(m.lines) >= m.maxLines {
		m.lines = m.lines[1:]
	}
	m.lines = append(m.lines, line)
	return len(p), nil
}

// writeTo exports the ring, latest line first, then a gap marker, then the
// preserved startup lines.
func (m *Memory) writeTo(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.lines) - 1; i >= 0; i-- {
		if _, err := w.Write(m.lines[i]); err != nil {
			return err
		}
	}
	if _, err := w.Write([]byte("...\n")); err != nil {
		return err
	}
	for i := len(m.startLines) - 1; i >= 0; i-- {
		if _, err := w.Write(m.startLines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) String() string {
	var b bytes.Buffer
	if err := m.writeTo(&b); err != nil {
		return ""
	}
	return b.String()
}
