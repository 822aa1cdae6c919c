// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// defaultLogger writes to stderr: colored through tint on a terminal, logfmt
// otherwise. stdout is reserved for the report.
var defaultLogger = &Logger{sl: slog.New(withCallDepth(4, stderrHandler()))}

func stderrHandler() slog.Handler {
	if !isJournal && isatty.IsTerminal(os.Stderr.Fd()) {
		return newTerminalHandler()
	}
	return newTextHandler()
}

// Errorf logs to the default logger; used before a check has its own.
func Errorf(format string, a ...any) { defaultLogger.log(slog.LevelError, fmt.Sprintf(format, a...)) }
