package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBufferMergesUnterminatedHead(t *testing.T) {
	b := NewLogBuffer(10)
	b.Append("a")
	b.Append("b\n")
	b.Append("c")

	assert.Equal(t, []string{"c", "ab\n"}, b.Lines())
	assert.Equal(t, "cab\n", b.String())
}

func TestLogBufferTerminatedChunksStayApart(t *testing.T) {
	b := NewLogBuffer(10)
	b.Append("one\n")
	b.Append("two\n")
	b.Append("three\n")

	assert.Equal(t, []string{"three\n", "two\n", "one\n"}, b.Lines())
}

func TestLogBufferDropsOldestPastCapacity(t *testing.T) {
	b := NewLogBuffer(2)
	b.Append("one\n")
	b.Append("two\n")
	b.Append("three\n")

	assert.Equal(t, []string{"three\n", "two\n"}, b.Lines())
	assert.Equal(t, 2, b.Len())
}

func TestLogBufferMergeDoesNotCountAgainstCapacity(t *testing.T) {
	b := NewLogBuffer(2)
	b.Append("one\n")
	b.Append("tw")
	b.Append("o\n")

	assert.Equal(t, []string{"two\n", "one\n"}, b.Lines())
}

func TestLogBufferClear(t *testing.T) {
	b := NewLogBuffer(10)
	b.Append("line\n")
	b.Clear()

	assert.Zero(t, b.Len())
	assert.Empty(t, b.Lines())

	// a cleared buffer starts a fresh head
	b.Append("next")
	assert.Equal(t, []string{"next"}, b.Lines())
}

func TestLogBufferLinesReturnsCopy(t *testing.T) {
	b := NewLogBuffer(10)
	b.Append("keep\n")

	lines := b.Lines()
	lines[0] = "mutated"
	assert.Equal(t, []string{"keep\n"}, b.Lines())
}
