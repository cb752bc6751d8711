package action

import (
	"log/slog"
	"sync"
)

// Logger is the per-invocation log sink handed to an action.
type Logger interface {
	Info(msg string)
	Error(msg string)
}

// LogLine is one message emitted by an action.
type LogLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// RecordingLogger forwards every line to slog and keeps a copy so the
// runner can attach the lines to the execution report.
type RecordingLogger struct {
	log *slog.Logger

	mu    sync.Mutex
	lines []LogLine
}

// NewRecordingLogger creates a RecordingLogger writing through log.
func NewRecordingLogger(log *slog.Logger) *RecordingLogger {
	return &RecordingLogger{log: log}
}

func (l *RecordingLogger) Info(msg string) {
	l.record("info", msg)
	l.log.Info(msg)
}

func (l *RecordingLogger) Error(msg string) {
	l.record("error", msg)
	l.log.Error(msg)
}

// Lines returns a copy of the recorded lines.
func (l *RecordingLogger) Lines() []LogLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogLine, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *RecordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, LogLine{Level: level, Message: msg})
}
