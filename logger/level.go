// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"log/slog"
	"strings"
)

const levelOff = slog.Level(99)

// Level is shared by every handler in the process. Checks start at "warn" so that
// stderr stays quiet unless something goes wrong or --debug is set.
var Level = &level{lvl: func() *slog.LevelVar {
	v := &slog.LevelVar{}
	v.Set(slog.LevelWarn)
	return v
}()}

type level struct {
	lvl *slog.LevelVar
}

func (l *level) Enabled(level slog.Level) bool {
	return level >= l.lvl.Level()
}

func (l *level) Set(level slog.Level) {
	l.lvl.Set(level)
}

// SetByName accepts the NETCHECK_LOG_LEVEL values. Unknown names are ignored.
func (l *level) SetByName(name string) {
	switch strings.ToLower(name) {
	case "err", "error":
		l.lvl.Set(slog.LevelError)
	case "warn", "warning":
		l.lvl.Set(slog.LevelWarn)
	case "info":
		l.lvl.Set(slog.LevelInfo)
	case "debug":
		l.lvl.Set(slog.LevelDebug)
	case "off", "none":
		l.lvl.Set(levelOff)
	}
}
