package core

import (
	"strings"
	"sync"
)

// LogBuffer collects log text a device streams in packet-sized chunks.
// Chunks are not aligned to lines: while the head entry has no line
// terminator, further chunks belong to it; once it is terminated the next
// chunk starts a fresh head. Entries are kept newest first.
type LogBuffer struct {
	mu       sync.Mutex
	maxLines int
	lines    []string
}

func NewLogBuffer(maxLines int) *LogBuffer {
	return &LogBuffer{maxLines: maxLines}
}

// Append merges one chunk of log text into the buffer.
func (b *LogBuffer) Append(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) > 0 && !strings.HasSuffix(b.lines[0], "\n") {
		b.lines[0] += text
		return
	}
	b.lines = append(b.lines, "")
	copy(b.lines[1:], b.lines)
	b.lines[0] = text
	if len(b.lines) > b.maxLines {
		b.lines = b.lines[:b.maxLines]
	}
}

// Lines returns a copy of the entries, newest first.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "")
}

func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}
