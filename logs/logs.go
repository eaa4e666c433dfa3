// Package logs wires the ambient logging for the device core: leveled
// console output, an optional rotating log file, and an in-memory trace
// ring that feeds the diagnostic dump.
package logs

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// File enables a rotating log file next to the console output.
	File string
	// Verbose lowers the level to debug. Debug is where the per-packet
	// trace lives, so this is noisy.
	Verbose bool
	// MemoryLines sizes the trace ring; 0 means a default.
	MemoryLines int
}

const (
	defaultMemoryLines = 2000
	memoryStartLines   = 200
)

type Log struct {
	zerolog.Logger
	mem *Memory
}

func New(opts Options) *Log {
	memLines := opts.MemoryLines
	if memLines == 0 {
		memLines = defaultMemoryLines
	}
	mem := NewMemory(memLines, memoryStartLines)

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly},
		mem,
	}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
		})
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()

	return &Log{Logger: logger, mem: mem}
}

// Nop returns a logger that discards everything; for tests.
func Nop() *Log {
	return &Log{Logger: zerolog.Nop(), mem: NewMemory(1, 0)}
}

// Memory exposes the trace ring for the diagnostic dump.
func (l *Log) Memory() *Memory {
	return l.mem
}
