// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

var isJournal = isStderrConnectedToJournal()

// Logger is a printf-style wrapper around slog.Logger.
// Checks embed it; every line goes to stderr, never to the report.
type Logger struct {
	sl *slog.Logger
}

// New returns a logger that shares the default handler.
func New() *Logger {
	return &Logger{sl: defaultLogger.sl}
}

// NewWithWriter is used by tests that want to inspect log output.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{sl: slog.New(withCallDepth(4, newTextHandlerTo(w)))}
}

func (l *Logger) Error(a ...any) { l.log(slog.LevelError, fmt.Sprint(a...)) }
func (l *Logger) Debug(a ...any) { l.log(slog.LevelDebug, fmt.Sprint(a...)) }

func (l *Logger) Warningf(format string, a ...any) { l.log(slog.LevelWarn, fmt.Sprintf(format, a...)) }
func (l *Logger) Debugf(format string, a ...any)   { l.log(slog.LevelDebug, fmt.Sprintf(format, a...)) }

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.sl == nil {
		return &Logger{sl: defaultLogger.sl.With(args...)}
	}
	return &Logger{sl: l.sl.With(args...)}
}

func (l *Logger) log(level slog.Level, msg string) {
	sl := defaultLogger.sl
	if l != nil && l.sl != nil {
		sl = l.sl
	}
	sl.Log(context.Background(), level, msg)
}
